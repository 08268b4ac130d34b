package session

import (
	"sync"
	"testing"
)

func TestTranscriptOrderPreserved(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewUtterance(SpeakerAgent, "hello"))
	tr.Append(NewUtterance(SpeakerUser, "hi"))
	tr.Append(NewUtterance(SpeakerAgent, "how are you?"))

	all := tr.All()
	if len(all) != 3 {
		t.Fatalf("len = %d", len(all))
	}
	if all[0].Text != "hello" || all[1].Text != "hi" || all[2].Text != "how are you?" {
		t.Fatalf("order broken: %v", all)
	}
	for _, u := range all {
		if u.ID == "" || u.CreatedAt.IsZero() {
			t.Fatalf("incomplete utterance: %+v", u)
		}
	}
}

func TestTranscriptAllReturnsCopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewUtterance(SpeakerUser, "original"))
	got := tr.All()
	got[0].Text = "mutated"
	if tr.All()[0].Text != "original" {
		t.Fatal("All exposed internal storage")
	}
}

func TestTranscriptConcurrentReaders(t *testing.T) {
	tr := NewTranscript()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			tr.Append(NewUtterance(SpeakerUser, "x"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = tr.All()
			_ = tr.Len()
		}
	}()
	wg.Wait()
	if tr.Len() != 200 {
		t.Fatalf("len = %d", tr.Len())
	}
}
