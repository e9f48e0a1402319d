// Package window provides the FFT window functions used by spectrum
// framing, with precomputed-coefficient application to complex sample
// frames. The set matches what SDR spectrum displays commonly offer;
// unknown types degrade to rectangular rather than failing.
package window
