package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"travelbooking/internal/booking"
)

// loadDraft reads a draft fixture. A missing traveler_count is taken from the roster;
// a roster shorter than the count is padded with default travelers.
func loadDraft(path string) (*booking.Draft, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}
	var d booking.Draft
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse draft %s: %w", path, err)
	}
	if d.TravelerCount == 0 {
		d.TravelerCount = len(d.Travelers)
	}
	for i, t := range d.Travelers {
		if t == nil {
			def := booking.DefaultTraveler()
			d.Travelers[i] = &def
			continue
		}
		if t.Age == 0 {
			t.Age = booking.DefaultAge
		}
		if t.Gender == "" {
			t.Gender = booking.DefaultGender
		}
	}
	d.Travelers = booking.ResizeRoster(d.Travelers, d.TravelerCount)
	return &d, nil
}

func printYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
