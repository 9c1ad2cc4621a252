package service

import (
	"strconv"
	"strings"
	"time"

	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/domain/order"

	"github.com/google/uuid"
)

// NewOrderID returns an id like ORD-1A2B3C4D.
func NewOrderID() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

const avgMinutesPerTruck = 25

// BuildPreview returns the warehouse briefing shown after a booking. Even cargo ids load
// immediately with a gate QR code; odd ids wait in the queue.
func BuildPreview(orderID string, cargoID int64, driverID string, at time.Time) order.Preview {
	var p order.Preview
	if cargoID%2 == 0 {
		p = readyPreview()
	} else {
		p = waitingPreview()
	}
	p.OrderID = orderID
	p.CargoID = cargoID
	p.DriverID = driverID
	p.CreatedAt = at.UTC()
	p.Finalize()
	return p
}

func readyPreview() order.Preview {
	return order.Preview{
		Status:             order.StatusReady,
		CommentFromShipper: "Груз готов к погрузке. Подъезжайте к 3-м воротам, покажите QR-код охране.",
		LoadingLocation: order.Place{
			Coords:  geo.Point{Lat: 55.7558, Lng: 37.6176},
			Address: "г. Москва, ул. Складская, д. 15, стр. 3",
		},
		Media: []order.Media{
			{Type: "image", URL: pexels("1267338", 800), Title: "Фото груза - стройматериалы"},
			{Type: "image", URL: pexels("1267320", 800), Title: "Упаковка и маркировка"},
			{
				Type:   "video",
				URL:    "https://sample-videos.com/zip/10/mp4/SampleVideo_1280x720_1mb.mp4",
				Title:  "Видео инструкция по погрузке",
				Poster: pexels("1267338", 400),
			},
			{Type: "image", URL: pexels("1267360", 800), Title: "Документы на груз"},
		},
		Parking: &order.Place{
			Coords: geo.Point{Lat: 55.7548, Lng: 37.6186},
			Title:  "Стоянка для ожидания",
			Note:   "Бесплатная стоянка в 200м от ворот. Есть туалет и кафе.",
		},
	}
}

func waitingPreview() order.Preview {
	return order.Preview{
		Status:             order.StatusWaiting,
		CommentFromShipper: "Груз ещё готовится. Ожидайте на стоянке, уведомим когда будет готов.",
		LoadingLocation: order.Place{
			Coords:  geo.Point{Lat: 59.9311, Lng: 30.3609},
			Address: "г. Санкт-Петербург, Индустриальный пр., д. 44",
		},
		Queue: order.Queue{Position: 3, Total: 8, AvgPerTruckMin: avgMinutesPerTruck},
		Parking: &order.Place{
			Coords: geo.Point{Lat: 59.9301, Lng: 30.3619},
			Title:  "Стоянка водителей",
			Note:   "Охраняемая стоянка. Работает круглосуточно. Есть душ, столовая и комната отдыха.",
		},
	}
}

func pexels(id string, width int) string {
	return "https://images.pexels.com/photos/" + id + "/pexels-photo-" + id +
		".jpeg?auto=compress&cs=tinysrgb&w=" + strconv.Itoa(width)
}
