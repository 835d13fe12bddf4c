// ABOUTME: Package resample provides sample-rate conversion for capture audio
// ABOUTME: Implements block-averaging decimation to a fixed target rate
package resample
