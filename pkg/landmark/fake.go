package landmark

import (
	"context"
	"sync"

	"FocusGolang/internal/entity"
)

// FakeDetector is a deterministic in-process IDetector for tests: it
// replays a scripted sequence of landmark sets, repeating the last entry
// once the script is exhausted.
type FakeDetector struct {
	mu     sync.Mutex
	script []*entity.LandmarkSet
	next   int
	Err    error
	Calls  int
}

func NewFakeDetector(script ...*entity.LandmarkSet) *FakeDetector {
	return &FakeDetector{script: script}
}

func (f *FakeDetector) Enqueue(sets ...*entity.LandmarkSet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, sets...)
}

func (f *FakeDetector) DetectLandmarks(_ context.Context, _ []byte) (*entity.LandmarkSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.script) == 0 {
		return &entity.LandmarkSet{FaceFound: false}, nil
	}
	set := f.script[f.next]
	if f.next < len(f.script)-1 {
		f.next++
	}
	return set, nil
}

func (f *FakeDetector) IsConnected() bool { return true }
func (f *FakeDetector) Reconnect() error  { return nil }
func (f *FakeDetector) Close()            {}
