package services

import "testing"

func TestParseClusters(t *testing.T) {
	raw := `[
		{"cluster_label": "Deadlock conditions", "questions": ["Define deadlock.", "List the four conditions for deadlock."]},
		{"cluster_label": "Page replacement", "questions": ["Explain LRU.", "Compare FIFO and LRU."]}
	]`

	clusters, err := parseClusters(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
	if clusters[0].ClusterLabel != "Deadlock conditions" || len(clusters[0].Questions) != 2 {
		t.Errorf("unexpected first cluster: %+v", clusters[0])
	}
}

func TestParseClustersCapped(t *testing.T) {
	raw := `[
		{"cluster_label": "a", "questions": ["q"]},
		{"cluster_label": "b", "questions": ["q"]},
		{"cluster_label": "c", "questions": ["q"]},
		{"cluster_label": "d", "questions": ["q"]},
		{"cluster_label": "e", "questions": ["q"]},
		{"cluster_label": "f", "questions": ["q"]},
		{"cluster_label": "g", "questions": ["q"]}
	]`

	clusters, err := parseClusters(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clusters) != maxClusters {
		t.Errorf("got %d clusters, want cap of %d", len(clusters), maxClusters)
	}
	if clusters[0].ClusterLabel != "a" || clusters[4].ClusterLabel != "e" {
		t.Errorf("cap kept wrong clusters: %+v", clusters)
	}
}

func TestParseClustersGarbageFails(t *testing.T) {
	if _, err := parseClusters("no clusters found"); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestParseTopic(t *testing.T) {
	topic, err := parseTopic(`{"topic": "Virtual Memory"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if topic != "Virtual Memory" {
		t.Errorf("topic = %q, want Virtual Memory", topic)
	}
}

func TestParseTopicFenced(t *testing.T) {
	topic, err := parseTopic("```json\n{\"topic\": \"Process Scheduling\"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if topic != "Process Scheduling" {
		t.Errorf("topic = %q, want Process Scheduling", topic)
	}
}

func TestParseTopicMissingFieldFails(t *testing.T) {
	for _, raw := range []string{`{}`, `{"topic": null}`, `{"topic": "   "}`} {
		if _, err := parseTopic(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}
