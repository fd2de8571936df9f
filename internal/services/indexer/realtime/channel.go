// Package realtime delivers row change notifications from the index over LISTEN/NOTIFY
package realtime

import (
	"fmt"
	"regexp"
	"strings"

	perr "cardanoidx/internal/platform/errors"
	"cardanoidx/internal/services/indexer/domain"

	"github.com/tidwall/gjson"
)

var ident = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,47}$`)

// Channel names the LISTEN channel for collection and event, e.g. block_insert
func Channel(collection, event string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(collection))
	if !ident.MatchString(c) {
		return "", perr.WithField(perr.InvalidArgf("collection %q is not a plain identifier", collection), "collection")
	}
	e := strings.ToUpper(strings.TrimSpace(event))
	switch e {
	case domain.EventInsert, domain.EventUpdate, domain.EventDelete:
	default:
		return "", perr.WithField(perr.InvalidArgf("event %q must be INSERT, UPDATE or DELETE", event), "event")
	}
	return c + "_" + strings.ToLower(e), nil
}

// TriggerDDL renders the function and trigger that publish changes of collection on its channel
// the payload is {"table","type","record","old_record"}; NOTIFY caps payloads at 8000 bytes
func TriggerDDL(collection, event string) (string, error) {
	ch, err := Channel(collection, event)
	if err != nil {
		return "", err
	}
	table := strings.ToLower(strings.TrimSpace(collection))
	op := strings.ToLower(strings.TrimSpace(event))
	fn := "cardanoidx_notify_" + ch
	trg := "cardanoidx_" + ch
	return fmt.Sprintf(`create or replace function %[1]s() returns trigger language plpgsql as $$
begin
  perform pg_notify('%[2]s', json_build_object(
    'table', TG_TABLE_NAME,
    'type', TG_OP,
    'record', row_to_json(NEW),
    'old_record', row_to_json(OLD)
  )::text);
  return null;
end
$$;
drop trigger if exists %[3]s on %[4]s;
create trigger %[3]s after %[5]s on %[4]s for each row execute function %[1]s();
`, fn, ch, trg, table, op), nil
}

// ParseEvent decodes one notification payload
func ParseEvent(payload string) (domain.Record, error) {
	if !gjson.Valid(payload) {
		return domain.Record{}, perr.JSONErrf("notification payload is not valid json")
	}
	root := gjson.Parse(payload)
	if !root.IsObject() {
		return domain.Record{}, perr.JSONErrf("notification payload is not an object")
	}
	rec := domain.Record{
		Table: root.Get("table").String(),
		Type:  strings.ToUpper(root.Get("type").String()),
	}
	if r := root.Get("record"); r.IsObject() {
		rec.Raw = r.Raw
	}
	if r := root.Get("old_record"); r.IsObject() {
		rec.OldRaw = r.Raw
	}
	if rec.Table == "" || rec.Type == "" {
		return domain.Record{}, perr.JSONErrf("notification payload lacks table or type")
	}
	return rec, nil
}
