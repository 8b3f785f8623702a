package mediagraph

import "testing"

func TestPropertyBagInsertionOrder(t *testing.T) {
	b := NewPropertyBag()
	b.Set("z", "1")
	b.Set("a", "2")
	b.Set("z", "3") // overwrite keeps original position

	keys := b.Keys()
	if len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Fatalf("unexpected key order: %v", keys)
	}
	v, _ := b.Get("z")
	if v != "3" {
		t.Fatalf("expected overwritten value, got %q", v)
	}
}

func TestPropertyBagDelete(t *testing.T) {
	b := NewPropertyBag()
	b.Set("a", "1")
	b.Set("b", "2")
	b.Delete("a")

	if _, ok := b.Get("a"); ok {
		t.Fatalf("expected a to be deleted")
	}
	if keys := b.Keys(); len(keys) != 1 || keys[0] != "b" {
		t.Fatalf("unexpected keys after delete: %v", keys)
	}
}

func TestRuleSetAppliesMatchingUpdateAndCountsChanges(t *testing.T) {
	bag := NewPropertyBag()
	bag.Set("media.class", "Audio/Source")

	rules := RuleSet{
		{
			Match:  map[string]string{"media.class": "Audio/*"},
			Update: map[string]string{"node.pause-on-idle": "true"},
		},
		{
			Match:  map[string]string{"media.class": "Video/*"},
			Update: map[string]string{"node.pause-on-idle": "false"},
		},
	}

	n := rules.Apply(bag)
	if n != 1 {
		t.Fatalf("expected exactly one rule-driven change, got %d", n)
	}
	v, _ := bag.Get("node.pause-on-idle")
	if v != "true" {
		t.Fatalf("unexpected value: %q", v)
	}
}

func TestPropertyBagKeysWithPrefix(t *testing.T) {
	b := NewPropertyBag()
	b.Set("node.name", "mixer")
	b.Set("stream.is-live", "true")
	b.Set("stream.latency", "1024/48000")
	b.Set("media.class", "Audio/Sink")

	got := b.KeysWithPrefix("stream.")
	if len(got) != 2 || got[0] != "stream.is-live" || got[1] != "stream.latency" {
		t.Fatalf("unexpected stream.* keys: %v", got)
	}
	if got := b.KeysWithPrefix("filter."); got != nil {
		t.Fatalf("expected no match for an absent prefix, got %v", got)
	}
}

func TestUpdatePropertiesReportsChangedOnlyWhenRulesFire(t *testing.T) {
	current := NewPropertyBag()
	current.Set("media.class", "Audio/Source")

	updates := NewPropertyBag()
	updates.Set("media.class", "Audio/Source") // no-op merge, no rules

	if changed := UpdateProperties(current, updates, nil); changed {
		t.Fatalf("expected no change with empty rule set")
	}

	rules := RuleSet{{
		Match:  map[string]string{"media.class": "Audio/*"},
		Update: map[string]string{"node.latency": "1024/48000"},
	}}
	if changed := UpdateProperties(current, updates, rules); !changed {
		t.Fatalf("expected a rule-driven change")
	}
}
