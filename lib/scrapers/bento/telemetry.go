package bento

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("scrapers/bento")
