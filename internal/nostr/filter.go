package nostr

import "gleam/internal/types"

// FilterToREQ builds the JSON object sent in a NIP-01 REQ message.
func FilterToREQ(filter types.Filter) map[string]interface{} {
	req := map[string]interface{}{}
	if filter.Limit > 0 {
		req["limit"] = filter.Limit
	}
	if len(filter.IDs) > 0 {
		req["ids"] = filter.IDs
	}
	if len(filter.Authors) > 0 {
		req["authors"] = filter.Authors
	}
	if len(filter.Kinds) > 0 {
		req["kinds"] = filter.Kinds
	}
	if filter.Since != nil {
		req["since"] = *filter.Since
	}
	if filter.Until != nil {
		req["until"] = *filter.Until
	}
	if len(filter.ETags) > 0 {
		req["#e"] = filter.ETags
	}
	if len(filter.PTags) > 0 {
		req["#p"] = filter.PTags
	}
	if len(filter.DTags) > 0 {
		req["#d"] = filter.DTags
	}
	if len(filter.TTags) > 0 {
		req["#t"] = filter.TTags
	}
	return req
}

// MatchesFilter reports whether evt satisfies filter. Relays are not trusted to
// apply filters exactly, so results are re-checked locally.
func MatchesFilter(evt *types.Event, filter types.Filter) bool {
	if len(filter.IDs) > 0 && !containsString(filter.IDs, evt.ID) {
		return false
	}
	if len(filter.Authors) > 0 && !containsString(filter.Authors, evt.PubKey) {
		return false
	}
	if len(filter.Kinds) > 0 && !containsInt(filter.Kinds, evt.Kind) {
		return false
	}
	if filter.Since != nil && evt.CreatedAt < *filter.Since {
		return false
	}
	if filter.Until != nil && evt.CreatedAt > *filter.Until {
		return false
	}
	for _, tf := range []struct {
		name   string
		values []string
	}{{"e", filter.ETags}, {"p", filter.PTags}, {"d", filter.DTags}, {"t", filter.TTags}} {
		if len(tf.values) > 0 && !hasTagValue(evt.Tags, tf.name, tf.values) {
			return false
		}
	}
	return true
}

func hasTagValue(tags [][]string, name string, values []string) bool {
	for _, tag := range tags {
		if len(tag) >= 2 && tag[0] == name && containsString(values, tag[1]) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsInt(list []int, n int) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}
