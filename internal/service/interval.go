package service

import "regexp"

// ── 时间区间校验 ──
//
// 时间统一以 24 小时制 "HH:MM" 字符串存储，定长格式下字典序即时间先后，
// 因此比较直接使用字符串运算。区间为左闭右开 [start, end)。

var timeFormatRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidateTimeFormat 校验 HH:MM 格式
func ValidateTimeFormat(t string) error {
	if !timeFormatRe.MatchString(t) {
		return ErrInvalidTimeFormat
	}
	return nil
}

// ValidateTimeOrder 要求 start < end
func ValidateTimeOrder(start, end string) error {
	if start >= end {
		return ErrInvalidTimeOrder
	}
	return nil
}

// ValidateInterval 依次校验格式与先后
func ValidateInterval(start, end string) error {
	if err := ValidateTimeFormat(start); err != nil {
		return err
	}
	if err := ValidateTimeFormat(end); err != nil {
		return err
	}
	return ValidateTimeOrder(start, end)
}

// Overlaps 判断两个左闭右开区间是否重叠，仅端点相接不算重叠
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}
