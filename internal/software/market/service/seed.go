package service

import (
	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"
)

func pt(lat, lng float64) *geo.Point { return &geo.Point{Lat: lat, Lng: lng} }

// SeedRecords is the built-in demo catalog: Dagestan shippers heading to central Russia.
func SeedRecords() []cargo.Record {
	return []cargo.Record{
		{
			ID: 1, OriginCity: "Махачкала", Origin: pt(42.9849, 47.5047),
			DestinationCity: "Москва", Destination: pt(55.7558, 37.6176),
			Description: "Фрукты и овощи (яблоки, груши, виноград)",
			WeightT:     20, PriceRub: 180000, DistanceKM: 1520, LoadingDate: "2025-01-20",
			CargoType:   "Продукты питания",
			ContactName: "Магомед Алиев", ContactPhone: "+7 (928) 555-0101",
		},
		{
			ID: 2, OriginCity: "Дербент", Origin: pt(42.0579, 48.2898),
			DestinationCity: "Санкт-Петербург", Destination: pt(59.9311, 30.3351),
			Description: "Консервированные овощи и соленья",
			WeightT:     15, PriceRub: 220000, DistanceKM: 1890, LoadingDate: "2025-01-22",
			CargoType:   "Консервы",
			ContactName: "Рашид Гасанов", ContactPhone: "+7 (928) 555-0102",
		},
		{
			ID: 3, OriginCity: "Каспийск", Origin: pt(42.8816, 47.6386),
			DestinationCity: "Екатеринбург", Destination: pt(56.8431, 60.6122),
			Description: "Рыба и морепродукты (осетр, судак, вобла)",
			WeightT:     12, PriceRub: 165000, DistanceKM: 1680, LoadingDate: "2025-01-25",
			CargoType:   "Морепродукты",
			ContactName: "Ибрагим Мусаев", ContactPhone: "+7 (928) 555-0103",
		},
		{
			ID: 4, OriginCity: "Буйнакск", Origin: pt(42.8167, 47.1167),
			DestinationCity: "Новосибирск", Destination: pt(55.0084, 82.9346),
			Description: "Сухофрукты и орехи (курага, изюм, грецкие орехи)",
			WeightT:     8, PriceRub: 280000, DistanceKM: 2850, LoadingDate: "2025-01-28",
			CargoType:   "Сухофрукты",
			ContactName: "Амир Абдуллаев", ContactPhone: "+7 (928) 555-0104",
		},
		{
			ID: 5, OriginCity: "Хасавюрт", Origin: pt(43.2509, 46.5881),
			DestinationCity: "Краснодар", Destination: pt(45.0355, 38.9769),
			Description: "Мед и продукты пчеловодства",
			WeightT:     5, PriceRub: 85000, DistanceKM: 580, LoadingDate: "2025-01-30",
			CargoType:   "Продукты пчеловодства",
			ContactName: "Салман Магомедов", ContactPhone: "+7 (928) 555-0105",
		},
		{
			ID: 6, OriginCity: "Избербаш", Origin: pt(42.5667, 47.8667),
			DestinationCity: "Ростов-на-Дону", Destination: pt(47.2357, 39.7015),
			Description: "Ковры и текстильные изделия ручной работы",
			WeightT:     3, PriceRub: 95000, DistanceKM: 650, LoadingDate: "2025-02-02",
			CargoType:   "Текстиль",
			ContactName: "Гаджи Исмаилов", ContactPhone: "+7 (928) 555-0106",
		},
		{
			ID: 7, OriginCity: "Кизляр", Origin: pt(43.8567, 46.7133),
			DestinationCity: "Казань", Destination: pt(55.7887, 49.1221),
			Description: "Коньяк и алкогольные напитки",
			WeightT:     10, PriceRub: 140000, DistanceKM: 1250, LoadingDate: "2025-02-05",
			CargoType:   "Алкогольные напитки",
			ContactName: "Руслан Омаров", ContactPhone: "+7 (928) 555-0107",
		},
		{
			ID: 8, OriginCity: "Махачкала", Origin: pt(42.9849, 47.5047),
			DestinationCity: "Нижний Новгород", Destination: pt(56.2965, 44.0020),
			Description: "Строительные материалы (камень, песок)",
			WeightT:     25, PriceRub: 200000, DistanceKM: 1180, LoadingDate: "2025-02-08",
			CargoType:   "Стройматериалы",
			ContactName: "Арсен Гаджиев", ContactPhone: "+7 (928) 555-0108",
		},
		{
			ID: 9, OriginCity: "Дагестанские Огни", Origin: pt(42.1167, 48.1917),
			DestinationCity: "Воронеж", Destination: pt(51.6720, 39.1843),
			Description: "Минеральная вода и безалкогольные напитки",
			WeightT:     18, PriceRub: 155000, DistanceKM: 1050, LoadingDate: "2025-02-10",
			CargoType:   "Напитки",
			ContactName: "Камиль Рамазанов", ContactPhone: "+7 (928) 555-0109",
		},
		{
			ID: 10, OriginCity: "Южно-Сухокумск", Origin: pt(44.6667, 45.6500),
			DestinationCity: "Самара", Destination: pt(53.2001, 50.1155),
			Description: "Сельскохозяйственная продукция (зерно, бобовые)",
			WeightT:     22, PriceRub: 175000, DistanceKM: 980, LoadingDate: "2025-02-12",
			CargoType:   "Зерновые",
			ContactName: "Заур Абакаров", ContactPhone: "+7 (928) 555-0110",
		},
	}
}
