package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdlog "log"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fasthttp/router"
	"github.com/mailru/easyjson"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/royalcat/cantonmap/config"
	"github.com/royalcat/cantonmap/dashboard"
	"github.com/royalcat/cantonmap/geomodel"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const MaxBodySize = 4 * 1000 * 1000 // 4MB

var meter = otel.Meter("github.com/royalcat/cantonmap/server")

func Run(ctx context.Context, address string, d *dashboard.Dashboard) error {
	log := slog.Default()

	s, err := newServer(d)
	if err != nil {
		return err
	}

	server := &fasthttp.Server{
		ReadTimeout:        time.Second,
		MaxRequestBodySize: MaxBodySize,
		Handler:            s.router().Handler,
	}

	go func() {
		log.Info("Server listening", "address", address)
		if err := server.ListenAndServe(address); err != nil && err != http.ErrServerClosed {
			stdlog.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	slog.Info("Server started")

	// wait cancel
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return server.ShutdownWithContext(shutdownCtx)
}

type server struct {
	d *dashboard.Dashboard

	metricRequests     metric.Int64Counter
	metricClicks       metric.Int64Counter
	metricUnresolved   metric.Int64Counter
	metricExportedRows metric.Int64Counter
}

func newServer(d *dashboard.Dashboard) (*server, error) {
	metricRequests, err := meter.Int64Counter("http_requests_total")
	if err != nil {
		return nil, err
	}
	metricClicks, err := meter.Int64Counter("clicks_resolved_total")
	if err != nil {
		return nil, err
	}
	metricUnresolved, err := meter.Int64Counter("clicks_unresolved_total")
	if err != nil {
		return nil, err
	}
	metricExportedRows, err := meter.Int64Counter("companies_exported_total")
	if err != nil {
		return nil, err
	}

	return &server{
		d: d,

		metricRequests:     metricRequests,
		metricClicks:       metricClicks,
		metricUnresolved:   metricUnresolved,
		metricExportedRows: metricExportedRows,
	}, nil
}

func (s *server) router() *router.Router {
	r := router.New()
	r.GET("/map", s.route("map", s.MapHandler))
	r.GET("/resolve/{lat}/{lon}", s.route("resolve", s.ResolveHandler))
	r.POST("/resolve", s.route("resolve_multi", s.ResolveMultipleHandler))

	r.GET("/companies", s.route("companies", s.CompaniesHandler))
	r.GET("/companies/facets", s.route("companies_facets", s.CompanyFacetsHandler))
	r.GET("/companies/export", s.route("companies_export", s.CompaniesExportHandler))
	r.GET("/companies/nearest/{lat}/{lon}", s.route("companies_nearest", s.NearestCompanyHandler))

	r.GET("/potential/map", s.route("potential_map", s.PotentialMapHandler))
	r.GET("/potential/legend", s.route("potential_legend", s.PotentialLegendHandler))
	r.GET("/potential/cantons/{id}", s.route("potential_canton", s.PotentialCantonHandler))
	r.GET("/potential/select", s.route("potential_select", s.PotentialSelectHandler))

	r.GET("/balance/map", s.route("balance_map", s.BalanceMapHandler))
	r.GET("/balance/legend", s.route("balance_legend", s.BalanceLegendHandler))
	r.GET("/balance/cantons/{id}", s.route("balance_canton", s.BalanceCantonHandler))
	r.GET("/balance/select", s.route("balance_select", s.BalanceSelectHandler))

	r.Handle(http.MethodGet, "/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	return r
}

func (s *server) route(name string, h fasthttp.RequestHandler) fasthttp.RequestHandler {
	attrs := metric.WithAttributes(attribute.String("route", name))
	return func(ctx *fasthttp.RequestCtx) {
		s.metricRequests.Add(ctx, 1, attrs)
		h(ctx)
	}
}

var bufPool = sync.Pool{
	New: func() any {
		return [][2]float64{}
	},
}

func writeJSON(ctx *fasthttp.RequestCtx, v any) {
	out, err := json.Marshal(v)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to marshal response")
		return
	}
	writeBody(ctx, "application/json", out)
}

func writeEasyJSON(ctx *fasthttp.RequestCtx, v easyjson.Marshaler) {
	out, err := easyjson.Marshal(v)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to marshal response")
		return
	}
	writeBody(ctx, "application/json", out)
}

func writeGeoJSON(ctx *fasthttp.RequestCtx, v json.Marshaler) {
	out, err := v.MarshalJSON()
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to marshal response")
		return
	}
	writeBody(ctx, "application/geo+json", out)
}

func writeBody(ctx *fasthttp.RequestCtx, contentType string, body []byte) {
	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.Header.SetContentType(contentType)
	ctx.Response.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, dashboard.ErrNotFound) {
		status = http.StatusNotFound
	}
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyString(err.Error())
}

func pathPoint(ctx *fasthttp.RequestCtx) (lat, lon float64, err error) {
	latS, _ := ctx.UserValue("lat").(string)
	lonS, _ := ctx.UserValue("lon").(string)

	lat, err = strconv.ParseFloat(latS, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err = strconv.ParseFloat(lonS, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %w", err)
	}
	return lat, lon, nil
}

// queryClick returns the clicked point from lat and lon query arguments,
// or nil when the request carries no click.
func queryClick(ctx *fasthttp.RequestCtx) (*orb.Point, error) {
	args := ctx.QueryArgs()
	if !args.Has("lat") && !args.Has("lon") {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(string(args.Peek("lat")), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(string(args.Peek("lon")), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude: %w", err)
	}
	return &orb.Point{lon, lat}, nil
}

func badRequest(ctx *fasthttp.RequestCtx, err error) {
	ctx.Response.SetStatusCode(http.StatusBadRequest)
	ctx.Response.SetBodyString(err.Error())
}

func (s *server) MapHandler(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, s.d.Map)
}

func (s *server) ResolveHandler(ctx *fasthttp.RequestCtx) {
	lat, lon, err := pathPoint(ctx)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	id, ok := s.d.Resolver.Resolve(lat, lon)
	if !ok {
		s.metricUnresolved.Add(ctx, 1)
		ctx.Response.SetStatusCode(http.StatusNoContent)
		return
	}
	s.metricClicks.Add(ctx, 1)

	writeEasyJSON(ctx, resolveResponse{Canton: id})
}

func (s *server) ResolveMultipleHandler(ctx *fasthttp.RequestCtx) {
	req := bufPool.Get().([][2]float64) // lat, lon
	req = req[:0]
	defer func() { bufPool.Put(req[:0]) }()

	err := unmarshalPointsListFast(ctx.Request.Body(), &req)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		ctx.Response.SetBodyString("failed to parse request: " + err.Error())
		return
	}

	res := make(resolveList, 0, len(req))
	for _, p := range req {
		id, ok := s.d.Resolver.Resolve(p[0], p[1])
		if ok {
			s.metricClicks.Add(ctx, 1)
		} else {
			s.metricUnresolved.Add(ctx, 1)
		}
		res = append(res, resolveResponse{Canton: id})
	}

	writeEasyJSON(ctx, res)
}

func companyFilter(ctx *fasthttp.RequestCtx) dashboard.Filter {
	args := ctx.QueryArgs()
	f := dashboard.Filter{Canton: string(args.Peek("canton"))}
	if args.Has("group") {
		f.Groups = []string{}
		for _, g := range args.PeekMulti("group") {
			if len(g) > 0 {
				f.Groups = append(f.Groups, string(g))
			}
		}
	}
	return f
}

func (s *server) CompaniesHandler(ctx *fasthttp.RequestCtx) {
	companies := s.d.Companies.Filter(companyFilter(ctx))
	writeGeoJSON(ctx, s.d.Companies.Markers(companies))
}

type facets struct {
	Cantons []string                      `json:"cantons"`
	Groups  []string                      `json:"groups"`
	Styles  map[string]config.MarkerStyle `json:"styles"`
}

func (s *server) CompanyFacetsHandler(ctx *fasthttp.RequestCtx) {
	f := facets{
		Cantons: append([]string{dashboard.AllCantons}, s.d.Companies.Cantons()...),
		Groups:  s.d.Companies.Groups(),
		Styles:  map[string]config.MarkerStyle{},
	}
	for _, g := range f.Groups {
		f.Styles[g] = s.d.Companies.Style(g)
	}
	writeJSON(ctx, f)
}

func (s *server) CompaniesExportHandler(ctx *fasthttp.RequestCtx) {
	companies := s.d.Companies.Filter(companyFilter(ctx))
	data, err := s.d.Companies.Export(companies)
	if err != nil {
		writeError(ctx, err)
		return
	}
	s.metricExportedRows.Add(ctx, int64(len(companies)))

	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+dashboard.ExportFileName+`"`)
	writeBody(ctx, "text/csv; charset=utf-8", data)
}

func (s *server) NearestCompanyHandler(ctx *fasthttp.RequestCtx) {
	lat, lon, err := pathPoint(ctx)
	if err != nil {
		badRequest(ctx, err)
		return
	}

	c, ok := s.d.Companies.NearestTo(lat, lon)
	if !ok {
		ctx.Response.SetStatusCode(http.StatusNoContent)
		return
	}
	writeJSON(ctx, struct {
		geomodel.Company
		Popup string `json:"popup"`
	}{Company: c, Popup: c.Popup()})
}

func (s *server) PotentialMapHandler(ctx *fasthttp.RequestCtx) {
	writeGeoJSON(ctx, s.d.Potential.Features())
}

func (s *server) PotentialLegendHandler(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, s.d.Potential.Legend())
}

func (s *server) PotentialCantonHandler(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)
	s.writePotential(ctx, s.d.Canton(id))
}

func (s *server) PotentialSelectHandler(ctx *fasthttp.RequestCtx) {
	click, err := queryClick(ctx)
	if err != nil {
		badRequest(ctx, err)
		return
	}
	s.writePotential(ctx, s.d.Select(string(ctx.QueryArgs().Peek("q")), click))
}

func (s *server) writePotential(ctx *fasthttp.RequestCtx, id string) {
	detail, err := s.d.Potential.Detail(id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, detail)
}

func (s *server) BalanceMapHandler(ctx *fasthttp.RequestCtx) {
	writeGeoJSON(ctx, s.d.Balance.Features())
}

func (s *server) BalanceLegendHandler(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, s.d.Balance.Legend())
}

func (s *server) BalanceCantonHandler(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)
	s.writeBalance(ctx, s.d.Canton(id))
}

func (s *server) BalanceSelectHandler(ctx *fasthttp.RequestCtx) {
	click, err := queryClick(ctx)
	if err != nil {
		badRequest(ctx, err)
		return
	}
	s.writeBalance(ctx, s.d.Select(string(ctx.QueryArgs().Peek("q")), click))
}

func (s *server) writeBalance(ctx *fasthttp.RequestCtx, id string) {
	cr, err := s.d.Balance.Detail(id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeEasyJSON(ctx, regionResponse(cr))
}
