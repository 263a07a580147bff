package noema

import (
	"testing"
)

func TestContentKinds(t *testing.T) {
	if Empty().Kind() != KindEmpty {
		t.Error("expected empty kind")
	}
	if Scalar(1.5).Kind() != KindScalar {
		t.Error("expected scalar kind")
	}
	if Text("hello").Kind() != KindText {
		t.Error("expected text kind")
	}
	if Structured(map[string]Content{"a": Scalar(1)}).Kind() != KindStructured {
		t.Error("expected structured kind")
	}
	if List(Scalar(1)).Kind() != KindList {
		t.Error("expected list kind")
	}
}

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		name    string
		content Content
		want    bool
	}{
		{"empty", Empty(), true},
		{"blank text", Text(""), true},
		{"no fields", Structured(nil), true},
		{"no items", List(), true},
		{"zero scalar", Scalar(0), false},
		{"text", Text("x"), false},
	}
	for _, tc := range cases {
		if got := tc.content.IsEmpty(); got != tc.want {
			t.Errorf("%s: expected IsEmpty %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestEqual(t *testing.T) {
	a := Structured(map[string]Content{
		"name":  Text("alpha"),
		"score": Scalar(0.5),
		"tags":  List(Text("x"), Text("y")),
	})
	b := Structured(map[string]Content{
		"name":  Text("alpha"),
		"score": Scalar(0.5),
		"tags":  List(Text("x"), Text("y")),
	})
	if !a.Equal(b) {
		t.Error("expected deep equality")
	}

	c := Structured(map[string]Content{
		"name":  Text("alpha"),
		"score": Scalar(0.5),
		"tags":  List(Text("x"), Text("z")),
	})
	if a.Equal(c) {
		t.Error("expected inequality on nested item")
	}
	if a.Equal(Text("alpha")) {
		t.Error("expected inequality across kinds")
	}
}

func TestDepthAndSize(t *testing.T) {
	leaf := Text("hello")
	if Depth(leaf) != 1 {
		t.Errorf("expected depth 1, got %d", Depth(leaf))
	}

	nested := Structured(map[string]Content{
		"inner": List(Structured(map[string]Content{"x": Scalar(1)})),
	})
	if Depth(nested) != 4 {
		t.Errorf("expected depth 4, got %d", Depth(nested))
	}

	if Size(Text("hello")) != 5 {
		t.Errorf("expected size 5, got %d", Size(Text("hello")))
	}
	if Size(Scalar(1)) != 8 {
		t.Errorf("expected size 8, got %d", Size(Scalar(1)))
	}
}

func TestRenderDeterministic(t *testing.T) {
	c := Structured(map[string]Content{
		"beta":  Scalar(2),
		"alpha": Text("one"),
	})
	want := "alpha: one; beta: 2"
	for i := 0; i < 5; i++ {
		if got := Render(c); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestRenderList(t *testing.T) {
	c := List(Text("a"), Text("b"))
	if got := Render(c); got != "a | b" {
		t.Errorf("expected %q, got %q", "a | b", got)
	}
}

func TestSimilarityScalars(t *testing.T) {
	if got := Similarity(Scalar(10), Scalar(10)); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := Similarity(Scalar(10), Scalar(5)); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestSimilarityText(t *testing.T) {
	got := Similarity(Text("the quick brown fox"), Text("the quick red fox"))
	// Shared: the, quick, fox. Union: the, quick, brown, red, fox.
	want := 3.0 / 5.0
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSimilarityMismatchedKinds(t *testing.T) {
	if got := Similarity(Text("five"), Scalar(5)); got != 0 {
		t.Errorf("expected 0 across kinds, got %v", got)
	}
	if got := Similarity(Empty(), Empty()); got != 0 {
		t.Errorf("expected 0 for empty values, got %v", got)
	}
}

func TestSimilarityStructured(t *testing.T) {
	a := Structured(map[string]Content{"x": Scalar(1), "y": Text("same")})
	b := Structured(map[string]Content{"x": Scalar(1), "y": Text("same")})
	if got := Similarity(a, b); got != 1 {
		t.Errorf("expected 1 for identical structures, got %v", got)
	}

	c := Structured(map[string]Content{"z": Scalar(1)})
	if got := Similarity(a, c); got != 0 {
		t.Errorf("expected 0 for disjoint keys, got %v", got)
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("Hello, World! 42")
	want := []string{"hello", "world", "42"}
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
