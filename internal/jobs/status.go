package jobs

import (
	"strings"

	"jobtracker/internal/errcode"
)

// Status 是申请所处的阶段，只允许 Statuses 中的取值。
type Status string

const (
	StatusBookmark  Status = "bookmark"
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
)

// StatusAll 是列表过滤中表示"不过滤"的哨兵值。
const StatusAll = "all"

// Statuses 按展示顺序列出全部合法状态。
var Statuses = []Status{StatusBookmark, StatusApplied, StatusInterview, StatusAccepted, StatusRejected}

// Valid 判断状态是否属于封闭枚举。
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus 校验并转换状态字符串。
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", invalidStatus(raw)
	}
	return s, nil
}

// parseStatusField 校验请求体中出现的 status 字段，显式 null 与非法取值同样拒绝。
func parseStatusField(field Optional[string]) (Status, error) {
	if field.Null {
		return "", invalidStatus("null")
	}
	return ParseStatus(field.Value)
}

func invalidStatus(raw string) error {
	names := make([]string, len(Statuses))
	for i, v := range Statuses {
		names[i] = string(v)
	}
	return errcode.Newf(errcode.InvalidInput, "Invalid status: '%s'. Must be one of: %s", raw, strings.Join(names, ", "))
}
