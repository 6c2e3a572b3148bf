package corpus

import "testing"

func TestSummarize(t *testing.T) {
	st := Summarize([]Doc{{Text: "one two three"}, {Text: "four"}})
	if st.Docs != 2 || st.Words != 4 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.AvgLength != 2 {
		t.Errorf("AvgLength = %v, want 2", st.AvgLength)
	}
	if empty := Summarize(nil); empty.AvgLength != 0 {
		t.Errorf("empty corpus AvgLength = %v", empty.AvgLength)
	}
}
