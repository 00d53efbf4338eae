package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Provinces es la lista cerrada que ofrecen los formularios de registro/perfil.
var Provinces = []string{
	"Álava", "Albacete", "Alicante", "Almería", "Asturias", "Ávila", "Badajoz", "Barcelona", "Burgos",
	"Cáceres", "Cádiz", "Cantabria", "Castellón", "Ciudad Real", "Córdoba", "Cuenca", "Gerona", "Granada",
	"Guadalajara", "Guipúzcoa", "Huelva", "Huesca", "Islas Baleares", "Jaén", "La Coruña", "La Rioja",
	"Las Palmas", "León", "Lérida", "Lugo", "Madrid", "Málaga", "Murcia", "Navarra", "Orense", "Palencia",
	"Pontevedra", "Salamanca", "Santa Cruz de Tenerife", "Segovia", "Sevilla", "Soria", "Tarragona",
	"Teruel", "Toledo", "Valencia", "Valladolid", "Vizcaya", "Zamora", "Zaragoza",
}

var (
	dniPattern   = regexp.MustCompile(`(?i)^\d{8}[A-HJ-NP-TV-Z]$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	provinceSet = func() map[string]struct{} {
		m := make(map[string]struct{}, len(Provinces))
		for _, p := range Provinces {
			m[p] = struct{}{}
		}
		return m
	}()
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Los errores se reportan con el nombre json del campo.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("dni", func(fl validator.FieldLevel) bool {
		return IsDNI(fl.Field().String())
	})
	_ = v.RegisterValidation("provincia", func(fl validator.FieldLevel) bool {
		return IsProvince(fl.Field().String())
	})
	_ = v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})

	return v
}

var ruleMessages = map[string]string{}

// RegisterRule agrega una regla de dominio sobre strings. Se llama desde init
// de cada paquete, antes de validar.
func RegisterRule(tag, msg string, fn func(string) bool) {
	_ = validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
	ruleMessages[tag] = msg
}

// Errors es un error de validación por campo (campo -> mensaje).
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add agrega un error de campo (el primero gana).
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; ok {
		return
	}
	e[field] = msg
}

// Err devuelve nil si no hay errores.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// AsErrors extrae Errors de una cadena de errores.
func AsErrors(err error) (Errors, bool) {
	var ve Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Struct valida tags `validate` y traduce a Errors.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := Errors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func IsDNI(s string) bool {
	return dniPattern.MatchString(strings.TrimSpace(s))
}

func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

func IsProvince(s string) bool {
	_, ok := provinceSet[strings.TrimSpace(s)]
	return ok
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obligatorio"
	case "emailaddr", "email":
		return "Formato de email inválido"
	case "dni":
		return "DNI inválido"
	case "provincia":
		return "Provincia inválida"
	case "min":
		if fe.Field() == "phone" {
			return "Teléfono inválido"
		}
		return fmt.Sprintf("Debe tener al menos %s caracteres", fe.Param())
	case "max":
		return fmt.Sprintf("Debe tener como máximo %s caracteres", fe.Param())
	case "oneof":
		return fmt.Sprintf("Valor no permitido (opciones: %s)", fe.Param())
	case "url":
		return "URL inválida"
	default:
		if msg, ok := ruleMessages[fe.Tag()]; ok {
			return msg
		}
		return fmt.Sprintf("Regla %q no cumplida", fe.Tag())
	}
}
