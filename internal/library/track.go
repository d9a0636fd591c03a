// Package library содержит модель библиотеки треков: упорядоченную коллекцию
// с избранным, закладками и правками метаданных, синхронизированную с хранилищем
package library

import (
	"github.com/hazadus/taraneem/internal/store"
)

// Timestamp именованная закладка внутри трека
type Timestamp struct {
	ID    string
	Time  float64
	Label string
}

// Track один трек библиотеки.
// AudioPath и CoverPath — производные пути текущей сессии, они строятся
// из ссылок хранилища при гидратации и никогда не сохраняются.
type Track struct {
	ID           string
	Name         string
	Artist       string
	AudioRef     string
	CoverRef     string
	IsFavorite   bool
	Timestamps   []Timestamp
	Duration     float64
	PlaybackRate float64
	Order        int

	AudioPath string
	CoverPath string
}

// toRecord переводит трек в сохраняемую форму, отбрасывая производные поля
func (t *Track) toRecord() *store.TrackRecord {
	timestamps := make([]store.TimestampRecord, 0, len(t.Timestamps))
	for _, ts := range t.Timestamps {
		timestamps = append(timestamps, store.TimestampRecord{
			ID:    ts.ID,
			Time:  ts.Time,
			Label: ts.Label,
		})
	}
	return &store.TrackRecord{
		ID:           t.ID,
		Name:         t.Name,
		Artist:       t.Artist,
		AudioRef:     t.AudioRef,
		CoverRef:     t.CoverRef,
		IsFavorite:   t.IsFavorite,
		Timestamps:   timestamps,
		Duration:     t.Duration,
		PlaybackRate: t.PlaybackRate,
		Order:        t.Order,
	}
}

// trackFromRecord восстанавливает трек из записи хранилища
func trackFromRecord(rec *store.TrackRecord) Track {
	timestamps := make([]Timestamp, 0, len(rec.Timestamps))
	for _, ts := range rec.Timestamps {
		timestamps = append(timestamps, Timestamp{
			ID:    ts.ID,
			Time:  ts.Time,
			Label: ts.Label,
		})
	}
	return Track{
		ID:           rec.ID,
		Name:         rec.Name,
		Artist:       rec.Artist,
		AudioRef:     rec.AudioRef,
		CoverRef:     rec.CoverRef,
		IsFavorite:   rec.IsFavorite,
		Timestamps:   timestamps,
		Duration:     rec.Duration,
		PlaybackRate: rec.PlaybackRate,
		Order:        rec.Order,
	}
}
