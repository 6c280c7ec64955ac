package bitmap

import "testing"

func TestSetClearIsSet(t *testing.T) {
	bm := NewBytes(8)

	set, err := bm.IsSet(5)
	if err != nil {
		t.Fatalf("IsSet: %v", err)
	}
	if set {
		t.Fatal("expected bit 5 clear on a fresh bitmap")
	}

	if err := bm.Set(5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	set, err = bm.IsSet(5)
	if err != nil || !set {
		t.Fatalf("expected bit 5 set, got set=%v err=%v", set, err)
	}

	if err := bm.Clear(5); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	set, err = bm.IsSet(5)
	if err != nil || set {
		t.Fatalf("expected bit 5 clear after Clear, got set=%v err=%v", set, err)
	}
}

func TestFirstSetFrom(t *testing.T) {
	tests := []struct {
		name  string
		setup func(bm *Bitmap)
		start int
		want  int
	}{
		{
			name:  "none set",
			setup: func(bm *Bitmap) {},
			start: 0,
			want:  -1,
		},
		{
			name: "lowest free block per spec example",
			setup: func(bm *Bitmap) {
				for i := 5; i < 64; i++ {
					_ = bm.Set(i)
				}
			},
			start: 3,
			want:  5,
		},
		{
			name: "skips bits before start",
			setup: func(bm *Bitmap) {
				_ = bm.Set(2)
				_ = bm.Set(9)
			},
			start: 3,
			want:  9,
		},
		{
			name: "start beyond bitmap size",
			setup: func(bm *Bitmap) {
				_ = bm.Set(2)
			},
			start: 100,
			want:  -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bm := NewBytes(8)
			tt.setup(bm)
			if got := bm.FirstSetFrom(tt.start); got != tt.want {
				t.Errorf("FirstSetFrom(%d) = %d, want %d", tt.start, got, tt.want)
			}
		})
	}
}

func TestToBytesFromBytesRoundTrip(t *testing.T) {
	bm := NewBytes(8)
	_ = bm.Set(3)
	_ = bm.Set(40)

	b := bm.ToBytes()
	bm2 := FromBytes(b)

	for _, loc := range []int{3, 40, 0, 63} {
		want, _ := bm.IsSet(loc)
		got, _ := bm2.IsSet(loc)
		if want != got {
			t.Errorf("bit %d: got %v want %v", loc, got, want)
		}
	}
}

func TestOutOfRangeErrors(t *testing.T) {
	bm := NewBytes(1)
	if _, err := bm.IsSet(-1); err == nil {
		t.Error("expected error for negative location")
	}
	if _, err := bm.IsSet(100); err == nil {
		t.Error("expected error for out-of-range location")
	}
	if err := bm.Set(100); err == nil {
		t.Error("expected error setting out-of-range location")
	}
	if err := bm.Clear(100); err == nil {
		t.Error("expected error clearing out-of-range location")
	}
}
