package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"labelq/internal/store"
)

// resolveProject accepts a numeric id or a project name.
func resolveProject(ctx context.Context, st *store.Store, ref string) (*store.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("project is required")
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return st.GetProject(ctx, id)
	}
	return st.FindProjectByName(ctx, ref)
}

// resolveUserID returns zero for an empty reference.
func resolveUserID(ctx context.Context, st *store.Store, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, nil
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		user, err := st.GetUser(ctx, id)
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	}
	user, err := st.FindUserByName(ctx, ref)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

func parseID(kind, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, raw)
	}
	return id, nil
}

func ownerLabel(userID int64, usernames map[int64]string) string {
	if userID == 0 {
		return "shared"
	}
	if name, ok := usernames[userID]; ok {
		return name
	}
	return fmt.Sprintf("user #%d", userID)
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-1]) + "…"
}
