package pipelinecache

import "testing"

func TestBlobWriteCountsTracksRepeatedWrites(t *testing.T) {
	d := newBlobWriteCounts()

	if n := d.recordWrite("GameData/cache/a.bin"); n != 1 {
		t.Errorf("expected first write to count 1, got %d", n)
	}
	if n := d.recordWrite("GameData/cache/a.bin"); n != 2 {
		t.Errorf("expected second write to count 2, got %d", n)
	}
	if n := d.recordWrite("GameData/cache/b.bin"); n != 1 {
		t.Errorf("expected a distinct path to start at 1, got %d", n)
	}
}
