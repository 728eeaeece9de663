package menupage

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("scrapers/menupage")
