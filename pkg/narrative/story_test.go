package narrative

import "testing"

func TestValidateStoryPoint(t *testing.T) {
	points := map[string]StoryPoint{
		"point1": {ID: "point1"},
	}

	if !ValidateStoryPoint("point1", points) {
		t.Error("expected point1 valid")
	}
	if ValidateStoryPoint("ghost", points) {
		t.Error("expected ghost invalid")
	}
	if ValidateStoryPoint("", points) {
		t.Error("expected empty id invalid")
	}
	if ValidateStoryPoint("point1", nil) {
		t.Error("expected nil map invalid")
	}
}

func TestValidateChoice(t *testing.T) {
	available := []Choice{
		{ID: "choice1", Text: "Head to the saloon", LeadsTo: "point2"},
		{ID: "choice2", Text: "Visit the sheriff", LeadsTo: "point3"},
	}

	if !ValidateChoice("choice2", available) {
		t.Error("expected choice2 valid")
	}
	if ValidateChoice("choice9", available) {
		t.Error("expected choice9 invalid")
	}
	if ValidateChoice("", available) {
		t.Error("expected empty id invalid")
	}
	if ValidateChoice("choice1", nil) {
		t.Error("expected no choices invalid")
	}
}
