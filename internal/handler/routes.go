package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-engine/internal/middleware"
	"github.com/noah-isme/timetable-engine/internal/models"
)

// Routes groups the API handlers mounted under the API prefix.
type Routes struct {
	Registration *RegistrationHandler
	Timetable    *TimetableHandler
	Optimizer    *OptimizerHandler
}

// Register mounts every API route on group. auth must populate the caller's claims.
func (r Routes) Register(group *gin.RouterGroup, auth gin.HandlerFunc) {
	secured := group.Group("")
	secured.Use(auth)

	staff := []string{string(models.RoleSuperAdmin), string(models.RoleAdmin)}
	adminOnly := middleware.RBAC(staff...)
	adminOrSelf := middleware.RBAC(append(staff, "SELF")...)

	registration := secured.Group("/registration")
	registration.Use(middleware.RBAC(append(staff, string(models.RoleStudent))...))
	registration.POST("/validate", r.Registration.Validate)
	registration.POST("/enroll", r.Registration.Enroll)

	timetable := secured.Group("/timetable")
	timetable.GET("/students/:id", adminOrSelf, r.Timetable.Student)
	timetable.GET("/students/:id/export", adminOrSelf, r.Timetable.ExportStudent)
	timetable.GET("/faculty/:id", adminOrSelf, r.Timetable.Faculty)

	optimizer := secured.Group("/optimizer")
	optimizer.Use(adminOnly)
	optimizer.POST("/candidates", r.Optimizer.Candidates)
	optimizer.POST("/reassign", r.Optimizer.Reassign)
	optimizer.POST("/approve", r.Optimizer.Approve)

	secured.GET("/disruptions/:id", adminOnly, r.Optimizer.GetDisruption)
	secured.GET("/courses/:id/disruptions", adminOnly, r.Optimizer.ListCourseDisruptions)
}
