package suppliers

import (
	"errors"
	"strings"
)

func (s *Service) validate(sup Supplier) error {
	if strings.TrimSpace(sup.Name) == "" {
		return errors.New("supplier name is required")
	}
	if len(sup.Name) > 120 {
		return errors.New("supplier name too long")
	}
	return nil
}
