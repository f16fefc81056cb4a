package notify

import "html/template"

var templates = template.Must(template.New("notify").Parse(`
{{define "created"}}<h2>Appointment Confirmation</h2>
<p>Dear {{.VisitorName}},</p>
<p>Your appointment has been scheduled and is awaiting approval.</p>
<ul>
  <li><strong>Date:</strong> {{.Date}}</li>
  <li><strong>Time:</strong> {{.Time}}</li>
  <li><strong>Host:</strong> {{.HostName}}</li>
  <li><strong>Purpose:</strong> {{.Purpose}}</li>
  <li><strong>Location:</strong> {{.Location}}</li>
</ul>
<p>You will receive another email once it has been reviewed.</p>
<p>Best regards,<br>Visitor Management Team</p>{{end}}

{{define "approved"}}<h2>Your Appointment Has Been Approved</h2>
<p>Dear {{.VisitorName}},</p>
<p>Your appointment with {{.HostName}} on {{.Date}} at {{.Time}} has been approved.</p>
<p><strong>Location:</strong> {{.Location}}</p>
{{if .PassURL}}<p><a href="{{.PassURL}}" style="background-color:#2563eb;color:#fff;padding:10px 20px;text-decoration:none;border-radius:5px;">View Your Visitor Pass</a></p>{{end}}
<p>Please bring a valid ID and present your pass at reception.</p>
<p>Best regards,<br>Visitor Management Team</p>{{end}}

{{define "cancelled"}}<h2>Appointment Cancelled</h2>
<p>Dear {{.VisitorName}},</p>
<p>Your appointment with {{.HostName}} on {{.Date}} at {{.Time}} has been {{.Outcome}}.</p>
{{if .Reason}}<p><strong>Notes:</strong> {{.Reason}}</p>{{end}}
<p>Please contact your host if you would like to reschedule.</p>
<p>Best regards,<br>Visitor Management Team</p>{{end}}

{{define "arrival"}}<h2>Visitor Arrival</h2>
<p>Dear {{.HostName}},</p>
<p>Your visitor has checked in and is waiting for you.</p>
<ul>
  <li><strong>Visitor:</strong> {{.VisitorName}}</li>
  {{if .Company}}<li><strong>Company:</strong> {{.Company}}</li>{{end}}
  <li><strong>Check-in time:</strong> {{.CheckInTime}}</li>
  <li><strong>Location:</strong> {{.Location}}</li>
</ul>
<p>Best regards,<br>Visitor Management Team</p>{{end}}

{{define "otp"}}<h2>Your Verification Code</h2>
<p>Use the code below to verify your visitor registration:</p>
<p style="font-size:24px;letter-spacing:4px;"><strong>{{.Code}}</strong></p>
<p>This code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>
<p>Best regards,<br>Visitor Management Team</p>{{end}}
`))
