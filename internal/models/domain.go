package models

import "time"

// LocationData is a GPS fix as reported by the capturing device.
type LocationData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"` // epoch millis
	Address   string  `json:"address,omitempty"`
}

// PhotoMetadata describes a captured photo. It is not changed after
// capture; a retake is a remove plus a new capture.
type PhotoMetadata struct {
	ID         string        `json:"id"`
	Filename   string        `json:"filename"`
	Timestamp  time.Time     `json:"timestamp"`
	Location   *LocationData `json:"location"`
	Compass    *float64      `json:"compass"`
	URL        string        `json:"url,omitempty"`
	ObjectPath string        `json:"object_path,omitempty"`
	BlurHash   string        `json:"blurHash,omitempty"`
	Size       int           `json:"size"`
}

type Bank struct {
	Code  string `json:"code" yaml:"code"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

type ValuationType struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Icon        string `json:"icon" yaml:"icon"`
	Description string `json:"description" yaml:"description"`
}

type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	FullName     string `json:"fullName"`
	Role         string `json:"role"`
}

// DocumentLog is one audit row written when a document is saved. Field
// order matches the CSV column order.
type DocumentLog struct {
	Timestamp      time.Time `json:"timestamp"`
	Username       string    `json:"username"`
	FileNumber     string    `json:"fileNumber"`
	PropertyType   string    `json:"propertyType"`
	Location       string    `json:"location"`
	CustomerName   string    `json:"customerName"`
	BankCode       string    `json:"bankCode"`
	ReferenceCode  string    `json:"referenceCode"`
	InspectionDate string    `json:"inspectionDate"`
	InspectionTime string    `json:"inspectionTime"`
	ValuerName     string    `json:"valuerName"`
	PropertyValue  string    `json:"propertyValue"`
	Remarks        string    `json:"remarks"`
	DocumentPath   string    `json:"documentPath"`
	GPSLatitude    string    `json:"gpsLatitude"`
	GPSLongitude   string    `json:"gpsLongitude"`
	PhotoCount     int       `json:"photoCount"`
	PhotoPaths     []string  `json:"photoPaths"`
}
