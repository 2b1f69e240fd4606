package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enlistment-api/internal/middleware"
	"github.com/noah-isme/enlistment-api/internal/models"
)

// Routes groups the handlers mounted under the API prefix.
type Routes struct {
	Auth        *AuthHandler
	Catalog     *CatalogHandler
	Enlistments *EnlistmentHandler
	Assessments *AssessmentHandler
	Batches     *BatchHandler
}

// Register mounts every API route on group. authenticate must put JWT claims
// in the context.
func (r Routes) Register(group *gin.RouterGroup, authenticate gin.HandlerFunc) {
	registrar := middleware.RequireRoles(models.RoleRegistrar)
	anyRole := middleware.RequireRoles(models.RoleRegistrar, models.RoleStudent)
	self := middleware.RegistrarOrSelf()

	group.POST("/auth/token", r.Auth.Token)

	api := group.Group("")
	api.Use(authenticate)

	api.POST("/auth/student-token", registrar, r.Auth.StudentToken)

	api.POST("/subjects", registrar, r.Catalog.CreateSubject)
	api.POST("/subjects/:id/prerequisites", registrar, r.Catalog.AddPrerequisite)
	api.GET("/subjects", anyRole, r.Catalog.ListSubjects)
	api.GET("/subjects/:id", anyRole, r.Catalog.GetSubject)

	api.POST("/rooms", registrar, r.Catalog.CreateRoom)
	api.GET("/rooms", anyRole, r.Catalog.ListRooms)
	api.GET("/rooms/:name", anyRole, r.Catalog.GetRoom)
	api.POST("/instructors", registrar, r.Catalog.CreateInstructor)
	api.GET("/instructors", anyRole, r.Catalog.ListInstructors)

	api.POST("/sections", registrar, r.Catalog.CreateSection)
	api.GET("/sections", anyRole, r.Catalog.ListSections)
	api.GET("/sections/:id", anyRole, r.Catalog.GetSection)
	api.DELETE("/sections/:id", registrar, r.Catalog.DeleteSection)
	api.GET("/sections/:id/roster.csv", registrar, r.Catalog.ExportRoster)
	api.GET("/sections/:id/activity", registrar, r.Enlistments.SectionActivity)

	api.POST("/students", registrar, r.Catalog.RegisterStudent)
	api.GET("/students/:number", self, r.Catalog.GetStudent)
	api.POST("/students/:number/enlistments", self, r.Enlistments.Enlist)
	api.DELETE("/students/:number/enlistments/:sectionId", self, r.Enlistments.Cancel)
	api.GET("/students/:number/enlistments/history", self, r.Enlistments.History)
	api.POST("/students/:number/completed-subjects", registrar, r.Enlistments.CompleteSubject)
	api.GET("/students/:number/assessment", self, r.Assessments.Get)

	api.POST("/enlistments/batch", registrar, r.Batches.Submit)
	api.GET("/enlistments/batch/:id", registrar, r.Batches.Get)
}
