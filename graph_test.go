package mediagraph

import "testing"

func TestAddNodeAssignsSequentialIDs(t *testing.T) {
	g := NewGraph()
	n1 := g.AddNode(NewMockNodeImpl())
	n2 := g.AddNode(NewMockNodeImpl())
	if n1.ID == n2.ID {
		t.Fatalf("expected distinct node ids")
	}
	if _, ok := g.Node(n1.ID); !ok {
		t.Fatalf("expected n1 registered")
	}
}

func TestAddLinkSetsTargetAndIncrementsRequired(t *testing.T) {
	g := NewGraph()
	from := g.AddNode(NewMockNodeImpl())
	to := g.AddNode(NewMockNodeImpl())

	link, err := g.AddLink(from.ID, 1, to.ID, 1)
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if len(from.TargetList) != 1 || from.TargetList[0].Node != to.ID {
		t.Fatalf("expected to in from's target list, got %+v", from.TargetList)
	}
	if to.Activation.State[0].Required.Load() != 1 {
		t.Fatalf("expected to's required count bumped to 1")
	}
	if to.Activation.State[0].Pending.Load() != 1 {
		t.Fatalf("expected Reset to set pending=required=1")
	}

	g.RemoveLink(link.ID)
	if len(from.TargetList) != 0 {
		t.Fatalf("expected target removed after RemoveLink")
	}
}

func TestAddLinkUnknownNodeFails(t *testing.T) {
	g := NewGraph()
	n := g.AddNode(NewMockNodeImpl())
	if _, err := g.AddLink(n.ID, 1, 999, 1); err == nil {
		t.Fatalf("expected error linking to unregistered node")
	}
}

func TestDriverRequestRunningBusyUntilFollowersRunning(t *testing.T) {
	g := NewGraph()
	driver := g.AddNode(NewMockNodeImpl())
	driver.Driver = true
	follower := g.AddNode(NewMockNodeImpl())
	if _, err := g.AddLink(driver.ID, 1, follower.ID, 1); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if follower.DriverNode != driver.ID {
		t.Fatalf("expected follower to inherit driver's id as DriverNode")
	}

	if _, err := driver.RequestState(StateSuspended, nil); err != nil {
		t.Fatalf("RequestState Suspended: %v", err)
	}
	driver.CompleteState(driver.pendingSeq, true, nil)
	if _, err := driver.RequestState(StatePaused, nil); err != nil {
		t.Fatalf("RequestState Paused: %v", err)
	}
	driver.CompleteState(driver.pendingSeq, true, nil)

	if _, err := driver.RequestState(StateRunning, nil); !HasCode(err, CodeBusy) {
		t.Fatalf("expected CodeBusy while follower is not Running, got %v", err)
	}

	follower.State = StateRunning
	if _, err := driver.RequestState(StateRunning, nil); err != nil {
		t.Fatalf("expected driver to proceed once its follower reached Running, got %v", err)
	}
}

func TestRemoveNodeDropsItsLinks(t *testing.T) {
	g := NewGraph()
	from := g.AddNode(NewMockNodeImpl())
	to := g.AddNode(NewMockNodeImpl())
	link, err := g.AddLink(from.ID, 1, to.ID, 1)
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	g.RemoveNode(to.ID)
	if _, ok := g.links[link.ID]; ok {
		t.Fatalf("expected link removed when an endpoint node is removed")
	}
}
