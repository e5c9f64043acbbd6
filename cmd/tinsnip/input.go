package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/titanous/json5"

	"github.com/chazu/tinsnip/pkg/compute"
	"github.com/chazu/tinsnip/pkg/engine"
	"github.com/chazu/tinsnip/pkg/part"
)

// scriptExt is the extension of part scripts. Any other file is read as a
// JSON5 snapshot.
const scriptExt = ".tinsnip"

// loadSnapshot reads path and returns the snapshot it describes together
// with the script source, if any.
func (c *cli) loadSnapshot(path string) (part.Snapshot, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return part.Snapshot{}, "", fmt.Errorf("read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), scriptExt) {
		s, err := c.evaluate(string(data))
		return s, string(data), err
	}
	s, err := decodeSnapshot(data)
	return s, "", err
}

func (c *cli) evaluate(source string) (part.Snapshot, error) {
	res, err := engine.New(c.cfg.EngineConfig()).Evaluate(source)
	if err != nil {
		return part.Snapshot{}, err
	}
	for _, w := range res.Warnings {
		c.log.Warn().Str("feature", w.Feature).Msg(w.Message)
	}
	if !res.OK() {
		msgs := lo.Map(res.Errors, func(e engine.EvalError, _ int) string { return e.Error() })
		return part.Snapshot{}, fmt.Errorf("script: %s", strings.Join(msgs, "; "))
	}
	return *res.Snapshot, nil
}

// decodeSnapshot reads a JSON5 snapshot. The document is normalised to
// plain JSON first so sketch entities go through their own decoder.
func decodeSnapshot(data []byte) (part.Snapshot, error) {
	var doc any
	if err := json5.Unmarshal(data, &doc); err != nil {
		return part.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	plain, err := json.Marshal(doc)
	if err != nil {
		return part.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	var s part.Snapshot
	if err := json.Unmarshal(plain, &s); err != nil {
		return part.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return s, nil
}

// compute runs the engine and logs what could not be placed.
func (c *cli) compute(s part.Snapshot) (*compute.Result, error) {
	res, err := compute.Compute(s, nil)
	if err != nil {
		var invalid *compute.InvalidSnapshotError
		if errors.As(err, &invalid) {
			for _, v := range invalid.Errors {
				c.log.Error().Str("feature", v.Feature).Msg(v.Message)
			}
		}
		return nil, err
	}
	for _, v := range res.Warnings {
		c.log.Warn().Str("feature", v.Feature).Msg(v.Message)
	}
	for _, u := range res.Unresolved {
		c.log.Warn().Str("feature", u.Feature).Str("parent", u.Parent).Str("reason", string(u.Reason)).Msg("unresolved feature")
	}
	return res, nil
}

func (c *cli) computeFile(path string) (part.Snapshot, *compute.Result, error) {
	s, _, err := c.loadSnapshot(path)
	if err != nil {
		return part.Snapshot{}, nil, err
	}
	res, err := c.compute(s)
	return s, res, err
}
