package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kmarlowe/frontier-engine/pkg/narrative"
	"github.com/kmarlowe/frontier-engine/pkg/story"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <story.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &StoryValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Story file is valid!")
}

type StoryValidator struct {
	errors []string
}

func (v *StoryValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	// Validate filename format
	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("story file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidStoryFilename(nameWithoutExt) {
		return fmt.Errorf("story filename '%s' must be lowercase snake_case (e.g., my_story.json, not my-story.json or MyStory.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var s story.Story
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&s); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	// Referential integrity: opening point, choice targets, arc branches
	if err := s.Validate(); err != nil {
		v.addError(err.Error())
	}

	v.validateStory(&s)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *StoryValidator) validateStory(s *story.Story) {
	v.validateIDFormat("opening_point", s.OpeningPoint)

	for pointID, point := range s.Points {
		v.validateIDFormat("story point ID", pointID)
		v.validatePoint(&point, pointID)
	}

	for arcID, arc := range s.Arcs {
		v.validateIDFormat("arc ID", arcID)
		if arc.StartingBranch != "" {
			v.validateIDFormat("arc starting branch", arc.StartingBranch)
		}
		for _, branchID := range arc.Branches {
			v.validateIDFormat("arc branch ID", branchID)
		}
	}

	for branchID := range s.Branches {
		v.validateIDFormat("branch ID", branchID)
	}
}

func (v *StoryValidator) validatePoint(point *narrative.StoryPoint, pointID string) {
	if point.Content == "" {
		v.addError(fmt.Sprintf("story point %s has no content", pointID))
	}

	switch point.Type {
	case narrative.PointExposition, narrative.PointDecision, narrative.PointAction,
		narrative.PointShowdown, narrative.PointResolution:
	default:
		v.addError(fmt.Sprintf("story point %s has unknown type %q", pointID, point.Type))
	}

	seen := make(map[string]bool)
	for _, c := range point.Choices {
		v.validateIDFormat("choice ID", c.ID)
		if c.Text == "" {
			v.addError(fmt.Sprintf("choice %s in point %s has no text", c.ID, pointID))
		}
		if seen[c.ID] {
			v.addError(fmt.Sprintf("choice %s in point %s is duplicated", c.ID, pointID))
		}
		seen[c.ID] = true
	}
}

func (v *StoryValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		v.addError(fmt.Sprintf("%s is empty", fieldName))
		return
	}
	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *StoryValidator) addError(msg string) {
	v.errors = append(v.errors, msg)
}

var idPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func isValidID(id string) bool {
	return idPattern.MatchString(id)
}

func isValidStoryFilename(name string) bool {
	return idPattern.MatchString(name)
}
