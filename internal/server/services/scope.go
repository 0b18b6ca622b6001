package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/identity"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// ownerID is the only source of the owner id for resource operations.
func ownerID(ctx context.Context) (int64, error) {
	id, ok := identity.FromContext(ctx)
	if !ok || id.UserID <= 0 {
		return 0, common.ErrorUnauthorized
	}
	return id.UserID, nil
}

// storeErr keeps NotFound and folds everything else into ErrorInternal.
func storeErr(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}

// NormalizePage applies listing defaults and the per-page cap.
func NormalizePage(num, perPage int) models.Page {
	if num < 1 {
		num = common.DefaultPageNum
	}
	if perPage < 1 {
		perPage = common.DefaultPerPage
	}
	if perPage > common.MaxPerPage {
		perPage = common.MaxPerPage
	}
	return models.Page{Num: num, PerPage: perPage}
}

// ParsePage normalizes a client supplied page and rejects page numbers past
// common.MaxPageNum.
func ParsePage(num, perPage int) (models.Page, error) {
	p := NormalizePage(num, perPage)
	if err := checkPage(p); err != nil {
		return models.Page{}, err
	}
	return p, nil
}

func checkPage(p models.Page) error {
	if p.Num > common.MaxPageNum {
		return fmt.Errorf("%w: page %d is out of range", common.ErrorBadRequest, p.Num)
	}
	return nil
}

// checkText enforces the non-empty and length rules for names and summaries.
func checkText(s string) error {
	if strings.TrimSpace(s) == "" || utf8.RuneCountInString(s) > common.MaxTextLength {
		return common.ErrorBadRequest
	}
	return nil
}

// txErr wraps transaction plumbing failures (begin, commit) as internal;
// errors already in the taxonomy pass through.
func txErr(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{common.ErrorNotFound, common.ErrorInternal,
		common.ErrorUnauthorized, common.ErrorBadRequest, common.ErrorConflict} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: transaction: %v", common.ErrorInternal, err)
}
