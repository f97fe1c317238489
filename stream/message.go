package stream

import (
	"github.com/vgio/vgio/tag"
)

// TaggedMessage pairs a group's tag with one of its messages. Data is nil
// when the message represents a tag-only group (a group with zero items,
// still worth yielding so indexing code sees the group existed).
type TaggedMessage struct {
	Tag  string
	Data []byte
}

// tagValidator reports whether candidate is a registered tag, as opposed to
// the first message of a legacy, untagged group. A nil validator means no
// registry was wired in (e.g. an iterator used only to re-coalesce or
// inspect a stream's existing tag runs, not to dispatch loaders by them);
// disambiguateTag then trusts the length check alone, matching the
// iterator's behavior before this predicate existed.
type tagValidator func(candidate string) bool

// disambiguateTag decides whether raw, the bytes read out of a group's tag
// slot, is really a tag or is the first message of a legacy, untagged
// group. Legacy files predate the tagged format and put their first
// message's raw bytes where a tag would go; this is exactly why tag.MaxLength
// exists as a release valve rather than wire enforcing it directly.
//
// A candidate only survives as a tag if it's short enough AND either it
// repeats the immediately preceding group's tag, or valid accepts it as a
// tag actually bound to some loader or saver. Matching the previous tag
// lets a run of groups under one tag survive even if that tag was never
// registered in this process (nothing to look up it against, but it's
// plainly not new message data); this is why prevTag is checked before
// valid rather than instead of it.
func disambiguateTag(raw []byte, prevTag string, valid tagValidator) (t string, legacyFirstItem []byte, isLegacy bool) {
	candidate := string(raw)

	if !tag.ValidLength(candidate) {
		return "", raw, true
	}

	isTag := prevTag != "" && prevTag == candidate
	if !isTag {
		switch {
		case valid != nil:
			isTag = valid(candidate)
		default:
			isTag = true
		}
	}

	if !isTag {
		return "", raw, true
	}

	return candidate, nil, false
}
