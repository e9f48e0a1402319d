// Package average provides per-bin power averaging policies for spectrum
// smoothing: a moving average over the last N frames, a fixed N-frame
// block average, and an N-frame peak hold. The fixed and peak policies
// only produce a result every N-th frame; callers gate publication on the
// readiness signal.
package average
