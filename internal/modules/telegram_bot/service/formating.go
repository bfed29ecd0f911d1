package service

import (
	"fmt"
	"strings"

	strategy "pattern_bot/internal/modules/strategy/service"
)

const helpText = "Команды:\n" +
	"/status - состояние движков по инструментам\n" +
	"/top [INST] - лидерборды паттернов\n" +
	"/reset INST - забыть выученный счёт инструмента\n"

func formatStatusLine(v strategy.PatternsView) string {
	last := "-"
	if v.LastSignalAt != nil {
		last = v.LastSignalAt.UTC().Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%s | live=%s ready=%s | pattern=%s known=%d virtual=%d | bull=%d bear=%d | last=%s",
		v.InstID, onOff(v.Live), onOff(v.Ready), orDash(v.Pattern),
		v.Known, v.VirtualOpen, len(v.Bullish), len(v.Bearish), last)
}

func formatStatus(lines []string) string {
	if len(lines) == 0 {
		return "📭 Нет отслеживаемых инструментов"
	}
	return "🩺 Статус\n\n" + strings.Join(lines, "\n")
}

func formatTop(v strategy.PatternsView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 %s (текущий паттерн %s)\n", v.InstID, orDash(v.Pattern))
	writeBoard(&b, "📈 Bullish", v.Bullish)
	writeBoard(&b, "📉 Bearish", v.Bearish)
	return b.String()
}

func writeBoard(b *strings.Builder, title string, entries []strategy.LeaderboardEntry) {
	fmt.Fprintf(b, "\n%s:\n", title)
	if len(entries) == 0 {
		b.WriteString("  пусто\n")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(b, "  %2d. %s  %+d\n", i+1, e.Key, e.Score)
	}
}
