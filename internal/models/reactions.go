package models

// Reactions maps an emoji to the ids of the users who reacted with it.
// The model is single-reaction-per-user: a user appears under at most one key.
type Reactions map[string][]string

// ByUser returns the emoji the user currently has on this entity, if any.
func (r Reactions) ByUser(userID string) (string, bool) {
	for emoji, users := range r {
		for _, id := range users {
			if id == userID {
				return emoji, true
			}
		}
	}
	return "", false
}

// Apply sets, moves, or toggles the user's reaction and reports whether the
// user holds a reaction afterwards. The three cases are handled explicitly so
// a moved reaction never leaves a stale emoji key behind:
//   - no existing reaction: add under emoji
//   - same emoji already set: toggle it off
//   - different emoji set: remove the old entry, add the new one
func (r Reactions) Apply(userID, emoji string) bool {
	existing, ok := r.ByUser(userID)
	switch {
	case !ok:
		r[emoji] = append(r[emoji], userID)
		return true
	case existing == emoji:
		r.remove(emoji, userID)
		return false
	default:
		r.remove(existing, userID)
		r[emoji] = append(r[emoji], userID)
		return true
	}
}

func (r Reactions) remove(emoji, userID string) {
	users := r[emoji]
	kept := users[:0]
	for _, id := range users {
		if id != userID {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		delete(r, emoji)
		return
	}
	r[emoji] = kept
}

// Count returns the total number of reactions across all emojis.
func (r Reactions) Count() int {
	n := 0
	for _, users := range r {
		n += len(users)
	}
	return n
}
