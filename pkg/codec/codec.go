// Package codec reads and writes the JSON world document.
//
// Decode walks the document with gjson so one malformed element can be
// skipped without losing its siblings: every element carries a "jsonType"
// discriminator, which is peeked first and then decoded into the matching
// definition shape. Unknown discriminators and missing required fields are
// logged and the element is dropped.
package codec

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"

	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/errors"
)

// Decoder decodes documents, logging skipped elements.
type Decoder struct {
	logger  *slog.Logger
	skipped int
}

// NewDecoder creates a decoder.
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{logger: logger}
}

// Decode parses a document. Only invalid JSON is an error.
func Decode(data []byte, logger *slog.Logger) (*domain.Document, error) {
	return NewDecoder(logger).Decode(data)
}

// Skipped returns how many elements the last Decode dropped.
func (d *Decoder) Skipped() int { return d.skipped }

// Decode parses a document. Only invalid JSON is an error.
func (d *Decoder) Decode(data []byte) (*domain.Document, error) {
	d.skipped = 0
	if !gjson.ValidBytes(data) {
		return nil, errors.ErrMalformedValue("document", fmt.Errorf("invalid JSON"))
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.ErrMalformedValue("document", fmt.Errorf("top level must be an object"))
	}

	doc := &domain.Document{
		Worlds:  d.worlds(root.Get("worlds"), "worlds"),
		Rewards: d.rewards(root.Get("rewards"), "rewards"),
	}
	if d.skipped > 0 {
		d.logger.Warn("Document decoded with skipped elements", "skipped", d.skipped)
	}
	return doc, nil
}

// Encode writes doc in the shape Decode reads.
func Encode(doc *domain.Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func (d *Decoder) skip(family, path string, err error) {
	d.skipped++
	d.logger.Warn("Skipping document element", "family", family, "path", path, "error", err)
}

// each calls fn for every element of an array field.
func each(arr gjson.Result, path string, fn func(gjson.Result, string)) {
	if !arr.IsArray() {
		return
	}
	for i, el := range arr.Array() {
		fn(el, fmt.Sprintf("%s[%d]", path, i))
	}
}

// header reads the discriminator and id shared by every element.
func header(r gjson.Result, family string, defaultType string) (jsonType, id string, err error) {
	if !r.IsObject() {
		return "", "", errors.ErrMalformedValue(family, fmt.Errorf("element is not an object"))
	}
	jsonType = r.Get("jsonType").String()
	if jsonType == "" {
		if defaultType == "" {
			return "", "", errors.ErrMissingField(family, "jsonType")
		}
		jsonType = defaultType
	}
	id = r.Get("id").String()
	if id == "" {
		return "", "", errors.ErrMissingField(jsonType, "id")
	}
	return jsonType, id, nil
}

func requireString(r gjson.Result, jsonType, field string) (string, error) {
	v := r.Get(field).String()
	if v == "" {
		return "", errors.ErrMissingField(jsonType, field)
	}
	return v, nil
}

func (d *Decoder) worlds(arr gjson.Result, path string) []*domain.WorldDef {
	var out []*domain.WorldDef
	each(arr, path, func(r gjson.Result, p string) {
		if def, err := d.world(r, p); err != nil {
			d.skip("world", p, err)
		} else {
			out = append(out, def)
		}
	})
	return out
}

func (d *Decoder) world(r gjson.Result, path string) (*domain.WorldDef, error) {
	jsonType, id, err := header(r, "world", string(domain.WorldKindWorld))
	if err != nil {
		return nil, err
	}
	kind := domain.WorldKind(jsonType)
	if !kind.IsValid() {
		return nil, errors.ErrUnknownJSONType("world", jsonType)
	}

	def := &domain.WorldDef{
		JSONType: kind,
		ID:       id,
		Name:     r.Get("name").String(),
		Worlds:   d.worlds(r.Get("worlds"), path+".worlds"),
		Scores:   d.scores(r.Get("scores"), path+".scores"),
		Missions: d.missions(r.Get("missions"), path+".missions"),
	}
	if g := r.Get("gate"); g.Exists() {
		gd, err := d.gate(g, path+".gate")
		if err != nil {
			d.skip("gate", path+".gate", err)
		} else {
			def.Gate = gd
		}
	}
	return def, nil
}

func (d *Decoder) scores(arr gjson.Result, path string) []*domain.ScoreDef {
	var out []*domain.ScoreDef
	each(arr, path, func(r gjson.Result, p string) {
		if def, err := score(r); err != nil {
			d.skip("score", p, err)
		} else {
			out = append(out, def)
		}
	})
	return out
}

func score(r gjson.Result) (*domain.ScoreDef, error) {
	jsonType, id, err := header(r, "score", string(domain.ScoreKindScore))
	if err != nil {
		return nil, err
	}
	kind := domain.ScoreKind(jsonType)
	if !kind.IsValid() {
		return nil, errors.ErrUnknownJSONType("score", jsonType)
	}

	def := &domain.ScoreDef{
		JSONType:       kind,
		ID:             id,
		Name:           r.Get("name").String(),
		HigherIsBetter: r.Get("higherBetter").Bool(),
		StartValue:     r.Get("startValue").Float(),
	}
	switch kind {
	case domain.ScoreKindRange:
		rng := r.Get("range")
		if !rng.IsObject() {
			return nil, errors.ErrMissingField(jsonType, "range")
		}
		def.Range = &domain.RangeDef{Low: rng.Get("low").Float(), High: rng.Get("high").Float()}
	case domain.ScoreKindVirtualItem:
		if def.ItemID, err = requireString(r, jsonType, "associatedItemId"); err != nil {
			return nil, err
		}
	}
	return def, nil
}

func (d *Decoder) gates(arr gjson.Result, path string) []*domain.GateDef {
	var out []*domain.GateDef
	each(arr, path, func(r gjson.Result, p string) {
		if def, err := d.gate(r, p); err != nil {
			d.skip("gate", p, err)
		} else {
			out = append(out, def)
		}
	})
	return out
}

func (d *Decoder) gate(r gjson.Result, path string) (*domain.GateDef, error) {
	jsonType, id, err := header(r, "gate", "")
	if err != nil {
		return nil, err
	}
	kind := domain.GateKind(jsonType)
	if !kind.IsValid() {
		return nil, errors.ErrUnknownJSONType("gate", jsonType)
	}

	def := &domain.GateDef{JSONType: kind, ID: id}
	switch kind {
	case domain.GateKindRecord:
		if def.ScoreID, err = requireString(r, jsonType, "associatedScoreId"); err != nil {
			return nil, err
		}
		def.DesiredRecord = r.Get("desiredRecord").Float()
	case domain.GateKindBalance:
		if def.ItemID, err = requireString(r, jsonType, "associatedItemId"); err != nil {
			return nil, err
		}
		def.DesiredBalance = int(r.Get("desiredBalance").Int())
		def.Consume = r.Get("consume").Bool()
	case domain.GateKindPurchasable:
		if def.ItemID, err = requireString(r, jsonType, "associatedItemId"); err != nil {
			return nil, err
		}
	case domain.GateKindWorldCompletion:
		if def.WorldID, err = requireString(r, jsonType, "associatedWorldId"); err != nil {
			return nil, err
		}
	case domain.GateKindSchedule:
		if s := r.Get("schedule"); s.Exists() {
			if def.Schedule, err = schedule(s, path+".schedule"); err != nil {
				return nil, err
			}
		}
	case domain.GateKindSocialAction:
		if def.Provider, err = requireString(r, jsonType, "provider"); err != nil {
			return nil, err
		}
		if def.Action, err = requireString(r, jsonType, "action"); err != nil {
			return nil, err
		}
	case domain.GateKindListAND, domain.GateKindListOR:
		def.Gates = d.gates(r.Get("gates"), path+".gates")
	}
	return def, nil
}

func schedule(r gjson.Result, path string) (*domain.ScheduleDef, error) {
	def := &domain.ScheduleDef{
		Cron:         r.Get("cron").String(),
		WindowMillis: r.Get("windowMillis").Float(),
	}
	var err error
	each(r.Get("ranges"), path+".ranges", func(rng gjson.Result, p string) {
		if err != nil {
			return
		}
		var start, end time.Time
		if start, err = parseTime(rng.Get("start"), p+".start"); err != nil {
			return
		}
		if end, err = parseTime(rng.Get("end"), p+".end"); err != nil {
			return
		}
		def.Ranges = append(def.Ranges, domain.TimeRange{Start: start, End: end})
	})
	if err != nil {
		return nil, err
	}
	return def, nil
}

func parseTime(r gjson.Result, path string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, r.String())
	if err != nil {
		return time.Time{}, errors.ErrMalformedValue(path, err)
	}
	return t, nil
}

func (d *Decoder) missions(arr gjson.Result, path string) []*domain.MissionDef {
	var out []*domain.MissionDef
	each(arr, path, func(r gjson.Result, p string) {
		if def, err := d.mission(r, p); err != nil {
			d.skip("mission", p, err)
		} else {
			out = append(out, def)
		}
	})
	return out
}

func (d *Decoder) mission(r gjson.Result, path string) (*domain.MissionDef, error) {
	jsonType, id, err := header(r, "mission", "")
	if err != nil {
		return nil, err
	}
	kind := domain.MissionKind(jsonType)
	if !kind.IsValid() {
		return nil, errors.ErrUnknownJSONType("mission", jsonType)
	}

	def := &domain.MissionDef{
		JSONType: kind,
		ID:       id,
		Name:     r.Get("name").String(),
		Rewards:  d.rewards(r.Get("rewards"), path+".rewards"),
	}
	switch kind {
	case domain.MissionKindRecord:
		if def.ScoreID, err = requireString(r, jsonType, "associatedScoreId"); err != nil {
			return nil, err
		}
		def.DesiredRecord = r.Get("desiredRecord").Float()
	case domain.MissionKindBalance:
		if def.ItemID, err = requireString(r, jsonType, "associatedItemId"); err != nil {
			return nil, err
		}
		def.DesiredBalance = int(r.Get("desiredBalance").Int())
	case domain.MissionKindPurchasing:
		if def.ItemID, err = requireString(r, jsonType, "associatedItemId"); err != nil {
			return nil, err
		}
	case domain.MissionKindWorldCompletion:
		if def.WorldID, err = requireString(r, jsonType, "associatedWorldId"); err != nil {
			return nil, err
		}
	case domain.MissionKindSocial:
		if def.Provider, err = requireString(r, jsonType, "provider"); err != nil {
			return nil, err
		}
		if def.Action, err = requireString(r, jsonType, "action"); err != nil {
			return nil, err
		}
	case domain.MissionKindChallenge:
		def.Missions = d.missions(r.Get("missions"), path+".missions")
	}
	return def, nil
}

func (d *Decoder) rewards(arr gjson.Result, path string) []*domain.RewardDef {
	var out []*domain.RewardDef
	each(arr, path, func(r gjson.Result, p string) {
		if def, err := d.reward(r, p); err != nil {
			d.skip("reward", p, err)
		} else {
			out = append(out, def)
		}
	})
	return out
}

func (d *Decoder) reward(r gjson.Result, path string) (*domain.RewardDef, error) {
	jsonType, id, err := header(r, "reward", "")
	if err != nil {
		return nil, err
	}
	kind := domain.RewardKind(jsonType)
	if !kind.IsValid() {
		return nil, errors.ErrUnknownJSONType("reward", jsonType)
	}

	def := &domain.RewardDef{
		JSONType:   kind,
		ID:         id,
		Name:       r.Get("name").String(),
		Repeatable: r.Get("repeatable").Bool(),
	}
	switch kind {
	case domain.RewardKindVirtualItem:
		if def.ItemID, err = requireString(r, jsonType, "associatedItemId"); err != nil {
			return nil, err
		}
		def.Amount = int(r.Get("amount").Int())
	case domain.RewardKindSequence, domain.RewardKindRandom:
		def.Rewards = d.rewards(r.Get("rewards"), path+".rewards")
		if len(def.Rewards) == 0 {
			return nil, errors.ErrMissingField(jsonType, "rewards")
		}
		def.Repeatable = false
	}
	return def, nil
}
