package email

const subjectVisitAssignedFmt = "Nueva visita asignada para el %s"
