package config

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

// decimalHook lets money settings be written as strings or numbers in yaml and env
func decimalHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
			if to != reflect.TypeOf(decimal.Decimal{}) {
				return data, nil
			}
			switch v := data.(type) {
			case string:
				return decimal.NewFromString(v)
			case float64:
				return decimal.NewFromFloat(v), nil
			case int:
				return decimal.NewFromInt(int64(v)), nil
			}
			return data, nil
		},
	)
}
