package processor

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultBuildDir is where intermediates, cache entries and the output land.
const DefaultBuildDir = "build"

// MixedFilename returns the output file name for an input track.
// Example: /path/to/song.mp3 → song-mixed.mp3
func MixedFilename(inputPath string) string {
	filename := filepath.Base(inputPath)
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "-mixed" + ext
}

// layout names every file a run writes inside the build directory.
type layout struct {
	dir    string
	output string
}

func newLayout(buildDir, inputPath string) layout {
	if buildDir == "" {
		buildDir = DefaultBuildDir
	}
	return layout{
		dir:    buildDir,
		output: filepath.Join(buildDir, MixedFilename(inputPath)),
	}
}

func (l layout) binaural() string {
	return filepath.Join(l.dir, "binaural.wav")
}

// effect is the running mix after overlaying effect i.
func (l layout) effect(i int) string {
	return filepath.Join(l.dir, fmt.Sprintf("tmp_effect_%d.wav", i))
}

// effectStage is a per-effect temporary such as the padded clip.
func (l layout) effectStage(i int, stage string) string {
	return filepath.Join(l.dir, fmt.Sprintf("tmp_effect_%d_%s.wav", i, stage))
}
