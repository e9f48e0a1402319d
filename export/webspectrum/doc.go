// Package webspectrum serves live power spectra to websocket clients in
// a compact binary frame format. It is the remote counterpart of an
// in-process spectrum display sink.
package webspectrum
