package cfgtree

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
)

// Validator 参数级校验规则。
type Validator interface {
	// Describe 返回规则文本，出现在 [KindValidation] 错误的 Rule 字段中。
	Describe() string
	Validate(v any) error
}

// ConfigValidator 配置级校验规则，在配置的全部参数解析成功后执行。
type ConfigValidator interface {
	Describe() string
	Validate(cfg any) error
}

type check[T any] struct {
	rule string
	fn   func(T) error
}

// Check 使用自定义函数构造参数校验器。
func Check[T any](rule string, fn func(T) error) Validator {
	return check[T]{rule: rule, fn: fn}
}

func (c check[T]) Describe() string { return c.rule }

func (c check[T]) Validate(v any) error {
	typed, ok := v.(T)
	if !ok {
		return unexpected(v, reflect.TypeFor[T]().String())
	}

	return c.fn(typed)
}

// Range 要求 min <= v <= max。
func Range[T cmp.Ordered](lo, hi T) Validator {
	return Check(fmt.Sprintf("must be in range %v..=%v", lo, hi), func(v T) error {
		if v < lo || v > hi {
			return fmt.Errorf("%v is out of range %v..=%v", v, lo, hi)
		}
		return nil
	})
}

// Min 要求 v >= lo。
func Min[T cmp.Ordered](lo T) Validator {
	return Check(fmt.Sprintf("must be at least %v", lo), func(v T) error {
		if v < lo {
			return fmt.Errorf("%v is less than %v", v, lo)
		}
		return nil
	})
}

type notEmpty struct{}

// NotEmpty 要求字符串、切片或 map 非空。
func NotEmpty() Validator { return notEmpty{} }

func (notEmpty) Describe() string { return "must not be empty" }

func (notEmpty) Validate(v any) error {
	if l, ok := v.(interface{ Len() int }); ok {
		if l.Len() == 0 {
			return errors.New("value is empty")
		}
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		if rv.Len() == 0 {
			return errors.New("value is empty")
		}
		return nil
	default:
		return unexpected(v, "string, slice or map")
	}
}

type filter struct {
	Validator
}

// Filter 包装 v：校验失败时参数视为缺失（使用默认值或输出 nil），不会报错。
//
// 适合把 "" 这类占位值当作未设置。
func Filter(v Validator) Validator { return filter{Validator: v} }

func isFilter(v Validator) bool {
	_, ok := v.(filter)

	return ok
}

type configCheck[T any] struct {
	rule string
	fn   func(*T) error
}

// ConfigCheck 构造配置级校验器，fn 接收解码后的配置。
//
// 配置未设置 [ConfigMetadata.Type] 时，T 应为 map[string]any。
func ConfigCheck[T any](rule string, fn func(cfg *T) error) ConfigValidator {
	return configCheck[T]{rule: rule, fn: fn}
}

func (c configCheck[T]) Describe() string { return c.rule }

func (c configCheck[T]) Validate(cfg any) error {
	switch typed := cfg.(type) {
	case T:
		return c.fn(&typed)
	case *T:
		return c.fn(typed)
	default:
		return unexpected(cfg, reflect.TypeFor[T]().String())
	}
}
