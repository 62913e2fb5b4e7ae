package orders

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate проверка бизнес-правил формы до записи в store (сам store ничего не проверяет).
func (in Input) Validate() error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.BatchName = strings.TrimSpace(in.BatchName)
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("invalid order: %w", err)
	}
	return nil
}

func ValidateAll(inputs []Input) error {
	if len(inputs) == 0 {
		return ErrEmptySubmission
	}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}
	return nil
}
