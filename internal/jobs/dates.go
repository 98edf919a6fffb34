package jobs

import (
	"time"

	"gorm.io/datatypes"

	"jobtracker/internal/errcode"
)

// DateLayout 是接口中日期的传输格式。
const DateLayout = "2006-01-02"

// ParseDate 将 YYYY-MM-DD 解析为 UTC 零点的日期。
func ParseDate(raw string) (datatypes.Date, error) {
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return datatypes.Date{}, errcode.Wrap(errcode.InvalidInput, "Date format error. Use YYYY-MM-DD format.", err)
	}
	return datatypes.Date(t), nil
}

// FormatDate 输出 YYYY-MM-DD。
func FormatDate(d datatypes.Date) string {
	return time.Time(d).Format(DateLayout)
}

// FormatDatePtr 在日期为空时返回 nil。
func FormatDatePtr(d *datatypes.Date) *string {
	if d == nil {
		return nil
	}
	s := FormatDate(*d)
	return &s
}

// Today 返回给定时刻在 UTC 下的日历日期。
func Today(now time.Time) datatypes.Date {
	return CivilDate(now)
}

// CivilDate 丢弃时分秒与时区，只保留 UTC 下的年月日。
func CivilDate(t time.Time) datatypes.Date {
	y, m, d := t.UTC().Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// DaysBetween 返回 to - from 的整天数。
func DaysBetween(from, to datatypes.Date) int {
	a := time.Time(CivilDate(time.Time(from)))
	b := time.Time(CivilDate(time.Time(to)))
	return int(b.Sub(a).Hours() / 24)
}
