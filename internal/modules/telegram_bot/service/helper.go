package service

func onOff(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
