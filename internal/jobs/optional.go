package jobs

import (
	"bytes"
	"encoding/json"
)

// Optional 区分 JSON 字段的三种状态：缺省、显式 null、给出值。
// 仅当字段出现在请求体中时 Set 为 true。
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some 构造一个已赋值的 Optional。
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null 构造一个显式置空的 Optional。
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Present 表示字段出现且不为 null。
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}
