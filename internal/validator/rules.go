package validator

import (
	"fmt"
	"regexp"
	"strings"

	"orgmarket_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern  = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	phoneReplacer = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// доменные теги; пустую строку пропускают, ее проверяет required
var domainRules = map[string]func(string) bool{
	"is-currency": func(v string) bool { return models.Currency(v).Valid() },
	"is-order-status": func(v string) bool {
		return models.OrderStatus(v).Valid()
	},
	// None не покупается
	"is-tier": func(v string) bool {
		tier := models.SubscriptionTier(v)
		return tier.Valid() && tier != models.TierNone
	},
	"is-gender": func(v string) bool {
		switch strings.ToLower(v) {
		case "male", "female":
			return true
		}
		return false
	},
	"phone": func(v string) bool { return phonePattern.MatchString(phoneReplacer.Replace(v)) },
}

func optional(check func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || check(value)
	}
}

func registerCustomRules(v *validator.Validate) {
	for tag, check := range domainRules {
		if err := v.RegisterValidation(tag, optional(check)); err != nil {
			panic(fmt.Sprintf("register validation tag %q: %v", tag, err))
		}
	}
}
