// Package compute provides the device backends that execute tensor kernels.
//
// Every tensor lives on a [Device]; kernels for that tensor run on the
// backend returned by [ForDevice]:
//
//   - CPU: chunked parallel kernels over worker goroutines
//   - CUDA: reported when a GPU build is present, otherwise unavailable
//
// Requesting an unavailable device is not an error. Tensors keep their
// device tag and the kernels fall back to the CPU backend:
//
//	b := compute.ForDevice(compute.CUDA)
//	b.Map(dst, src, math.Sqrt)
package compute
