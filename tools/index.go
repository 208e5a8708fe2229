package tools

import (
	"context"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"

	"github.com/spf13/viper"
)

func NewPtr[T any](v T) *T {
	return &v
}

// StopContext is cancelled on SIGINT/SIGTERM.
func StopContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
}

// SetViperDefaultsFromObj registers every `mapstructure` key of obj with its
// current value as default, so viper.Unmarshal sees env-only keys too.
func SetViperDefaultsFromObj(v *viper.Viper, obj any) {
	rv := reflect.Indirect(reflect.ValueOf(obj))
	fields := reflect.VisibleFields(rv.Type())

	var fieldTag string
	var tagName string

	for _, field := range fields {
		if field.Anonymous || !field.IsExported() {
			continue
		}

		fieldTag = field.Tag.Get("mapstructure")
		if fieldTag == "" || fieldTag == "-" {
			continue
		}

		tagName = strings.SplitN(fieldTag, ",", 2)[0]

		v.SetDefault(tagName, rv.FieldByIndex(field.Index).Interface())
	}
}
