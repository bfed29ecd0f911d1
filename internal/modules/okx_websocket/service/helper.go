package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pattern_bot/internal/helper"
	"pattern_bot/internal/models"
)

func okxBar(tf string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(tf)) {
	case "1m", "3m", "5m", "15m", "30m":
		return strings.ToLower(strings.TrimSpace(tf)), nil
	case "60m", "1h":
		return "1H", nil
	case "2h":
		return "2H", nil
	case "4h":
		return "4H", nil
	case "6h":
		return "6H", nil
	case "12h":
		return "12H", nil
	case "1d":
		return "1D", nil
	case "1w":
		return "1W", nil
	}
	return "", fmt.Errorf("unsupported timeframe for OKX bar: %q", tf)
}

// parseCandleRow разбирает строку OKX:
// [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm]
func parseCandleRow(instID, bar string, row []string) (models.CandleTick, bool) {
	if len(row) < 5 {
		return models.CandleTick{}, false
	}

	tsMs, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return models.CandleTick{}, false
	}
	open, err1 := strconv.ParseFloat(row[1], 64)
	high, err2 := strconv.ParseFloat(row[2], 64)
	low, err3 := strconv.ParseFloat(row[3], 64)
	closep, err4 := strconv.ParseFloat(row[4], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || closep <= 0 {
		return models.CandleTick{}, false
	}

	var vol, volQuote float64
	if len(row) >= 6 {
		vol, _ = strconv.ParseFloat(row[5], 64)
	}
	if len(row) >= 8 {
		volQuote, _ = strconv.ParseFloat(row[7], 64)
	}

	start := time.UnixMilli(tsMs).UTC()
	end := start
	if d := helper.TimeframeToDuration(bar); d > 0 {
		end = start.Add(d)
	}

	return models.CandleTick{
		InstID:       instID,
		Open:         open,
		High:         high,
		Low:          low,
		Close:        closep,
		Volume:       vol,
		QuoteVolume:  volQuote,
		Start:        start,
		End:          end,
		TimeframeRaw: bar,
	}, true
}

// confirmed: OKX кладёт флаг закрытия в последний элемент (9 полей).
// В коротких строках флага нет - считаем закрытой.
func confirmed(row []string) bool {
	if len(row) < 9 {
		return true
	}
	return row[len(row)-1] == "1"
}
