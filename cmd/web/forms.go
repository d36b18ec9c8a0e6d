package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/service"
	"github.com/AdamBeresnev/pingpong-brackets/internal/utils"
)

func formInt(form url.Values, key string) (*int, error) {
	if !form.Has(key) {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(form.Get(key)))
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &v, nil
}

// parseConfigForm turns the rules form into a patch. Fields missing from the form stay untouched.
func parseConfigForm(form url.Values) (service.ConfigPatch, error) {
	var patch service.ConfigPatch

	if form.Has("name") {
		name := form.Get("name")
		patch.Name = &name
	}

	if form.Has("serving_mode") {
		mode := bracket.ServingMode(form.Get("serving_mode"))
		if mode != bracket.ServeTwoInRow && mode != bracket.ServeScorer {
			return service.ConfigPatch{}, fmt.Errorf("unknown serving mode %q", mode)
		}
		patch.ServingMode = &mode
	}

	var err error
	if patch.TargetPoints, err = formInt(form, "target_points"); err != nil {
		return service.ConfigPatch{}, err
	}
	if patch.KnockoutSlots, err = formInt(form, "knockout_slots"); err != nil {
		return service.ConfigPatch{}, err
	}

	sets := &service.SetsPatch{}
	if form.Has("scoring") {
		switch form.Get("scoring") {
		case "sets":
			sets.Enabled = utils.Ptr(true)
		case "points":
			sets.Enabled = utils.Ptr(false)
		default:
			return service.ConfigPatch{}, fmt.Errorf("unknown scoring %q", form.Get("scoring"))
		}
	}
	if sets.BestOf, err = formInt(form, "best_of"); err != nil {
		return service.ConfigPatch{}, err
	}
	if sets.PointsPerSet, err = formInt(form, "points_per_set"); err != nil {
		return service.ConfigPatch{}, err
	}
	if sets.Enabled != nil || sets.BestOf != nil || sets.PointsPerSet != nil {
		patch.Sets = sets
	}

	return patch, nil
}
