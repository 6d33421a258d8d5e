package performance

import "testing"

func ratingPtr(v float64) *float64 { return &v }

func TestRecognizeEmptyInput(t *testing.T) {
	labels := Recognize(map[string]Standing{}, 4.0)
	if len(labels) != 0 {
		t.Fatalf("expected empty result, got %+v", labels)
	}
}

func TestRecognizeEveryEmployeePresent(t *testing.T) {
	standings := map[string]Standing{
		"e1": {AverageRating: ratingPtr(4.5), CompletedGoals: 2},
		"e2": {AverageRating: nil, CompletedGoals: 0},
		"e3": {AverageRating: ratingPtr(2.0), CompletedGoals: 1},
	}
	labels := Recognize(standings, 4.0)

	for id := range standings {
		got, ok := labels[id]
		if !ok {
			t.Fatalf("employee %s missing from result", id)
		}
		if got == nil {
			t.Fatalf("employee %s has nil label slice", id)
		}
	}
}

func TestRecognizeTopPerformerTie(t *testing.T) {
	standings := map[string]Standing{
		"e1": {AverageRating: ratingPtr(4.8), CompletedGoals: 0},
		"e2": {AverageRating: ratingPtr(4.8), CompletedGoals: 0},
		"e3": {AverageRating: ratingPtr(4.2), CompletedGoals: 0},
	}
	labels := Recognize(standings, 4.0)

	for _, id := range []string{"e1", "e2"} {
		if !hasLabel(labels[id], LabelTopPerformer) {
			t.Fatalf("expected %s to be top performer, got %v", id, labels[id])
		}
	}
	if hasLabel(labels["e3"], LabelTopPerformer) {
		t.Fatalf("e3 should not be top performer: %v", labels["e3"])
	}
}

func TestRecognizeThresholdGate(t *testing.T) {
	standings := map[string]Standing{
		"e1": {AverageRating: ratingPtr(3.9), CompletedGoals: 0},
		"e2": {AverageRating: ratingPtr(3.0), CompletedGoals: 0},
	}
	labels := Recognize(standings, 4.0)

	for id, got := range labels {
		if hasLabel(got, LabelTopPerformer) {
			t.Fatalf("no employee meets threshold, %s got %v", id, got)
		}
	}

	// exactly at threshold qualifies
	standings["e1"] = Standing{AverageRating: ratingPtr(4.0)}
	labels = Recognize(standings, 4.0)
	if !hasLabel(labels["e1"], LabelTopPerformer) {
		t.Fatalf("rating at threshold should qualify, got %v", labels["e1"])
	}
}

func TestRecognizeNoReviewsNeverTopPerformer(t *testing.T) {
	standings := map[string]Standing{
		"e1": {AverageRating: nil, CompletedGoals: 5},
	}
	labels := Recognize(standings, 0)

	if hasLabel(labels["e1"], LabelTopPerformer) {
		t.Fatalf("employee without reviews must not be top performer: %v", labels["e1"])
	}
	if !hasLabel(labels["e1"], LabelEmployeeOfMonth) {
		t.Fatalf("expected employee of the month for most completed goals: %v", labels["e1"])
	}
}

func TestRecognizeEmployeeOfMonthRequiresCompletedGoal(t *testing.T) {
	standings := map[string]Standing{
		"e1": {AverageRating: ratingPtr(4.9), CompletedGoals: 0},
		"e2": {AverageRating: nil, CompletedGoals: 0},
	}
	labels := Recognize(standings, 4.0)

	for id, got := range labels {
		if hasLabel(got, LabelEmployeeOfMonth) {
			t.Fatalf("nobody completed a goal, %s got %v", id, got)
		}
	}
}

func TestRecognizeEmployeeOfMonthTie(t *testing.T) {
	standings := map[string]Standing{
		"e1": {CompletedGoals: 3},
		"e2": {CompletedGoals: 3},
		"e3": {CompletedGoals: 2},
	}
	labels := Recognize(standings, 4.0)

	for _, id := range []string{"e1", "e2"} {
		if !hasLabel(labels[id], LabelEmployeeOfMonth) {
			t.Fatalf("expected %s to share employee of the month, got %v", id, labels[id])
		}
	}
	if hasLabel(labels["e3"], LabelEmployeeOfMonth) {
		t.Fatalf("e3 should not win: %v", labels["e3"])
	}
}

func TestRecognizeBothLabelsOrdered(t *testing.T) {
	standings := map[string]Standing{
		"e1": {AverageRating: ratingPtr(4.6), CompletedGoals: 4},
		"e2": {AverageRating: ratingPtr(3.1), CompletedGoals: 1},
	}
	labels := Recognize(standings, 4.0)

	got := labels["e1"]
	if len(got) != 2 || got[0] != LabelTopPerformer || got[1] != LabelEmployeeOfMonth {
		t.Fatalf("expected both labels in order, got %v", got)
	}
	if len(labels["e2"]) != 0 {
		t.Fatalf("e2 should have no labels: %v", labels["e2"])
	}
}

func TestRecognizeIdempotent(t *testing.T) {
	standings := map[string]Standing{
		"e1": {AverageRating: ratingPtr(4.4), CompletedGoals: 2},
		"e2": {AverageRating: ratingPtr(4.4), CompletedGoals: 2},
	}
	first := Recognize(standings, 4.0)
	second := Recognize(standings, 4.0)

	if len(first) != len(second) {
		t.Fatalf("result size changed between runs")
	}
	for id, got := range first {
		other := second[id]
		if len(got) != len(other) {
			t.Fatalf("labels for %s changed between runs: %v vs %v", id, got, other)
		}
		for i := range got {
			if got[i] != other[i] {
				t.Fatalf("labels for %s changed between runs: %v vs %v", id, got, other)
			}
		}
	}
}

func TestBuildStandings(t *testing.T) {
	goals := []Goal{
		{EmployeeID: "e1", Status: GoalStatusCompleted},
		{EmployeeID: "e1", Status: GoalStatusCompleted},
		{EmployeeID: "e1", Status: GoalStatusInProgress},
		{EmployeeID: "e2", Status: GoalStatusCompleted},
	}
	reviews := []Review{
		{EmployeeID: "e1", Rating: 5},
		{EmployeeID: "e1", Rating: 4},
		{EmployeeID: "e2", Rating: 3},
	}
	standings := BuildStandings([]string{"e1", "e2", "e3"}, goals, reviews)

	if len(standings) != 3 {
		t.Fatalf("expected three employees, got %+v", standings)
	}
	if standings["e1"].CompletedGoals != 2 {
		t.Fatalf("e1 completed goals: expected 2, got %d", standings["e1"].CompletedGoals)
	}
	if standings["e1"].AverageRating == nil || *standings["e1"].AverageRating != 4.5 {
		t.Fatalf("e1 average: expected 4.5, got %v", standings["e1"].AverageRating)
	}
	if standings["e2"].CompletedGoals != 1 || *standings["e2"].AverageRating != 3 {
		t.Fatalf("unexpected e2 standing: %+v", standings["e2"])
	}
	if standings["e3"].AverageRating != nil || standings["e3"].CompletedGoals != 0 {
		t.Fatalf("e3 should be empty standing: %+v", standings["e3"])
	}
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}
