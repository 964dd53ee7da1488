// Package binwise provides histogram-binning confidence calibration for
// multi-class classifiers: it learns, from a held-out validation set, how
// often each band of top-1 softmax confidence is actually correct, then
// replaces top-1 scores with those empirical accuracies at inference time.
//
// Quick start with pre-computed validation scores:
//
//	bw, err := binwise.New(binwise.WithBins(15))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := bw.FitFromScores(confidences, correct); err != nil {
//	    log.Fatal(err)
//	}
//
//	res, _ := bw.Calibrate([]float64{0.7, 0.2, 0.1})
//	fmt.Println(res.Probs, res.Calibrated)
//
// Or drive a full ONNX classifier over an on-disk validation split:
//
//	bw, err := binwise.New(binwise.WithModelPath("models/classifier.onnx"))
//	...
//	err = bw.Fit(ctx, "data/val")
//
// A fitted Binwise is safe for concurrent calibration calls: the table is
// immutable after Fit. Fit once, calibrate everywhere.
package binwise
