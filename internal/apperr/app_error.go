package apperr

import "github.com/tuanvumaihuynh/medsupply/pkg/zerror"

const (
	ValidationErrorCode = "VALIDATION_FAILED"
	InvalidParamCode    = "INVALID_PARAMETER"
)

var (
	ValidationErr   = zerror.NewValidationFailed(ValidationErrorCode, "validation error")
	InvalidParamErr = zerror.NewBadRequest(InvalidParamCode, "invalid parameter")
	InvalidBodyErr  = zerror.NewBadRequest("INVALID_BODY", "cuerpo de la solicitud inválido")
	RateLimitedErr  = zerror.NewTooManyRequests("RATE_LIMITED", "demasiadas solicitudes, intente más tarde")
	NotReadyErr     = zerror.NewServiceUnavailable("NOT_READY", "servicio no disponible")
)

// Vendedores.
var (
	VendedorNotFound        = zerror.NewNotFound("VENDEDOR_NOT_FOUND", "vendedor no encontrado")
	VendedorCorreoDuplicado = zerror.NewConflict("VENDEDOR_CORREO_DUPLICADO", "correo ya registrado")
	PlanVentaDuplicado      = zerror.NewConflict("PLAN_VENTA_DUPLICADO", "ya existe un plan para ese vendedor y periodo")
	AsignacionNotFound      = zerror.NewNotFound("ASIGNACION_NOT_FOUND", "asignación no encontrada")
	AsignacionCerrada       = zerror.NewConflict("ASIGNACION_CERRADA", "la asignación ya está cerrada")
)

// Productos.
var (
	ProductoNotFound               = zerror.NewNotFound("PRODUCTO_NOT_FOUND", "producto no encontrado")
	ProductoSkuDuplicado           = zerror.NewConflict("PRODUCTO_SKU_DUPLICADO", "codigo_sku ya registrado")
	ProductoCertificacionDuplicada = zerror.NewConflict("PRODUCTO_CERTIFICACION_DUPLICADA", "el producto ya tiene una certificación")
	ImportJobNotFound              = zerror.NewNotFound("IMPORT_JOB_NOT_FOUND", "importación no encontrada")
	ImportCSVInvalido              = zerror.NewBadRequest("CSV_INVALIDO", "archivo CSV inválido")
)

// Proveedores.
var (
	ProveedorNotFound     = zerror.NewNotFound("PROVEEDOR_NOT_FOUND", "proveedor no encontrado")
	ProveedorNitDuplicado = zerror.NewConflict("PROVEEDOR_NIT_DUPLICADO", "nit ya registrado")
)

// Uploads.
var (
	ArchivoRequerido       = zerror.NewBadRequest("ARCHIVO_REQUERIDO", "archivo requerido")
	ArchivoTipoInvalido    = zerror.NewBadRequest("ARCHIVO_TIPO_INVALIDO", "tipo de archivo no permitido")
	ArchivoDemasiadoGrande = zerror.NewBadRequest("ARCHIVO_DEMASIADO_GRANDE", "el archivo excede el tamaño máximo permitido")
)

// Auth.
var (
	UserEmailDuplicado    = zerror.NewConflict("USUARIO_DUPLICADO", "el usuario ya existe")
	CredencialesInvalidas = zerror.NewUnauthorized("CREDENCIALES_INVALIDAS", "credenciales inválidas")
	UsuarioInactivo       = zerror.NewUnauthorized("USUARIO_INACTIVO", "usuario inactivo")
	UsuarioNoEncontrado   = zerror.NewUnauthorized("USUARIO_NO_ENCONTRADO", "usuario no encontrado")
	TokenFaltante         = zerror.NewUnauthorized("TOKEN_FALTANTE", "token de autorización requerido")
	TokenInvalido         = zerror.NewUnauthorized("TOKEN_INVALIDO", "token inválido o expirado")
)

// Mediator.
var (
	UpstreamUnavailable = zerror.NewBadGateway("ERROR_CONEXION", "servicio no disponible")
	UpstreamTimeout     = zerror.NewTimeout("TIEMPO_AGOTADO", "el servicio no respondió a tiempo")
)
