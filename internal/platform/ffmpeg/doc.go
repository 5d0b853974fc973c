// Package ffmpeg builds and runs ffmpeg/ffprobe invocations for media
// processing. Argument construction is split from execution: the builders in
// args.go are pure functions returning deterministic argument slices, and the
// Runner in runner.go executes them with context cancellation and stderr
// capture. Work units compose builders and hand the slices to a shared
// Runner.
package ffmpeg
